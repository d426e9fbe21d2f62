// ABOUTME: Wires the outreach engine from configuration
// ABOUTME: Builds the logger, AI provider, classifier, router, dispatcher, inbox, and agent
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/agent"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/classifier"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/config"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/decision"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/outbound"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/queue"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/router"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/sync"
)

// Runtime is a fully wired engine.
type Runtime struct {
	Engine     *decision.Engine
	Classifier *classifier.Classifier
	Router     *router.Router
	Dispatcher *outbound.Dispatcher
	Queue      *queue.Queue
	Inbox      *sync.GmailInbox
	Agent      *agent.Agent
}

// NewLogger builds a zap logger. Output goes to stderr so stdio transports
// stay clean.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = level
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// NewProvider returns the configured AI backend wrapped in the retry policy.
func NewProvider(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (decision.Provider, error) {
	switch cfg.Provider {
	case "fake":
		return decision.NewFakeProvider(), nil
	case "gemini", "":
		gemini, err := decision.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		policy := decision.DefaultRetryPolicy()
		policy.MaxRetries = cfg.MaxRetries
		if cfg.BaseDelay > 0 {
			policy.BaseDelay = cfg.BaseDelay
		}
		if cfg.MaxDelay > 0 {
			policy.MaxDelay = cfg.MaxDelay
		}
		return decision.WithRetry(gemini, policy, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}

// NewClassifier builds the reply classifier from config. ai may be nil.
func NewClassifier(cfg config.ClassifierConfig, ai classifier.Completer, logger *zap.Logger) *classifier.Classifier {
	return classifier.New(classifier.Config{
		FastPathThreshold: cfg.FastPathThreshold,
		Gate: classifier.ReviewGate{
			MinConfidence:          cfg.ReviewConfidence,
			MinObjectionConfidence: cfg.ObjectionReviewConfidence,
		},
		EnableAI: cfg.EnableAI && ai != nil,
	}, ai, logger)
}

// NewStandaloneClassifier builds a classifier for dry runs outside the agent.
// When the AI backend cannot be built it logs why and classifies with rules only.
func NewStandaloneClassifier(ctx context.Context, cfg *config.Config, logger *zap.Logger, rulesOnly bool) *classifier.Classifier {
	var ai classifier.Completer
	if !rulesOnly {
		provider, err := NewProvider(ctx, cfg.AI, logger)
		if err != nil {
			logger.Warn("AI backend unavailable, using rules only", zap.Error(err))
		} else {
			ai = decision.NewEngine(provider, nil, logger)
		}
	}
	return NewClassifier(cfg.Classifier, ai, logger)
}

// BuildRuntime wires every component. When a Gmail token exists at
// tokenPath, email goes through Gmail and replies are polled from the inbox;
// otherwise email is queued to the outbox for manual sending.
func BuildRuntime(ctx context.Context, cfg *config.Config, database *sql.DB, logger *zap.Logger, tokenPath string) (*Runtime, error) {
	provider, err := NewProvider(ctx, cfg.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	engine := decision.NewEngine(provider, db.NewDecisionLog(database), logger.Named("decision"))
	cls := NewClassifier(cfg.Classifier, engine, logger.Named("classifier"))

	dispatcher := outbound.NewDispatcher(database, cfg.Sending.DailyLimit, logger.Named("outbound"))
	dispatcher.Register(models.ChannelLinkedIn, outbound.NewOutboxChannel(database, models.ChannelLinkedIn))

	rt := &Runtime{Engine: engine, Classifier: cls, Dispatcher: dispatcher}

	token, err := loadGmailToken(tokenPath)
	if err != nil {
		logger.Warn("gmail token unreadable, email will be queued to the outbox", zap.Error(err))
	}
	if token != nil {
		service, err := sync.NewGmailClient(ctx, token)
		if err != nil {
			return nil, err
		}
		dispatcher.Register(models.ChannelEmail, outbound.NewGmailChannel(service, cfg.Sending.FromEmail, cfg.Sending.SenderName))
		rt.Inbox = sync.NewGmailInbox(database, sync.NewGmailSource(service), logger.Named("inbox"))
	} else {
		dispatcher.Register(models.ChannelEmail, outbound.NewOutboxChannel(database, models.ChannelEmail))
	}

	rt.Router = router.New(database, router.NewDBApprovalQueue(database), dispatcher, engine,
		router.Config{AutoApprove: cfg.Router.AutoApprove}, logger.Named("router"))
	rt.Queue = queue.New(db.NewTaskRepository(database), logger.Named("queue"))

	deps := agent.Deps{
		DB:         database,
		Queue:      rt.Queue,
		Decider:    engine,
		Classifier: cls,
		Router:     rt.Router,
		Sender:     dispatcher,
		Logger:     logger.Named("agent"),
	}
	if rt.Inbox != nil {
		deps.Inbox = rt.Inbox
	}
	rt.Agent = agent.New(cfg, deps)
	return rt, nil
}

// loadGmailToken returns nil without error when no token has been saved.
func loadGmailToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return sync.LoadToken(path)
}
