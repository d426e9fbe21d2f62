// ABOUTME: Two-stage reply classifier
// ABOUTME: Runs the pattern fast path and escalates low-confidence replies to the AI backend
package classifier

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/decision"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// ReplyInput is one inbound reply to classify.
type ReplyInput struct {
	Subject    string
	Body       string
	History    []string // earlier messages in the thread, oldest first
	ReceivedAt time.Time
}

// Completer sends a raw completion request to the AI backend.
type Completer interface {
	Complete(ctx context.Context, req decision.Request) (decision.Response, error)
}

// Config tunes the classifier.
type Config struct {
	// FastPathThreshold is the rule confidence a reply must exceed to skip
	// the AI stage.
	FastPathThreshold float64
	Gate              ReviewGate
	EnableAI          bool
}

// DefaultConfig returns the standard classifier settings.
func DefaultConfig() Config {
	return Config{
		FastPathThreshold: 0.85,
		Gate:              DefaultReviewGate(),
		EnableAI:          true,
	}
}

// StageResult is the outcome of the fast path: either a FastMatch or a
// NeedsEscalation.
type StageResult interface {
	isStageResult()
}

// FastMatch is a confident rule-based classification.
type FastMatch struct {
	Classification models.Classification
}

// NeedsEscalation carries the heuristic classification of a reply that the
// rules could not settle, plus the cleaned text for the AI stage.
type NeedsEscalation struct {
	Heuristic models.Classification
	Cleaned   string
}

func (FastMatch) isStageResult()       {}
func (NeedsEscalation) isStageResult() {}

// Stats counts which stage produced each classification.
type Stats struct {
	FastPath    int64 `json:"fast_path"`
	AI          int64 `json:"ai"`
	AIFallbacks int64 `json:"ai_fallbacks"`
}

// Classifier turns reply text into a Classification.
type Classifier struct {
	cfg    Config
	ai     Completer
	logger *zap.Logger

	fastPath    atomic.Int64
	aiCount     atomic.Int64
	aiFallbacks atomic.Int64
}

// New creates a classifier. ai may be nil, in which case low-confidence
// replies keep their heuristic classification.
func New(cfg Config, ai Completer, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{cfg: cfg, ai: ai, logger: logger}
}

// FastPath runs the pattern stage only.
func (c *Classifier) FastPath(in ReplyInput) StageResult {
	cleaned := CleanBody(in.Body)
	if cleaned == "" {
		cleaned = strings.TrimSpace(in.Body)
	}

	h := Heuristic(in.Subject, cleaned, c.cfg.Gate)
	if h.Confidence > c.cfg.FastPathThreshold {
		return FastMatch{Classification: h}
	}
	return NeedsEscalation{Heuristic: h, Cleaned: cleaned}
}

// Classify runs both stages. It never fails: when the AI stage is disabled
// or unusable the heuristic classification is returned.
func (c *Classifier) Classify(ctx context.Context, in ReplyInput) models.Classification {
	res := c.FastPath(in)
	if m, ok := res.(FastMatch); ok {
		c.fastPath.Add(1)
		c.logger.Debug("reply classified by rules",
			zap.String("category", string(m.Classification.Category)),
			zap.Float64("confidence", m.Classification.Confidence))
		return m.Classification
	}

	esc := res.(NeedsEscalation)
	if !c.cfg.EnableAI || c.ai == nil {
		c.fastPath.Add(1)
		return esc.Heuristic
	}

	cls, err := c.classifyWithAI(ctx, in, esc)
	if err != nil {
		c.aiFallbacks.Add(1)
		c.logger.Warn("AI classification failed, using heuristic",
			zap.String("category", string(esc.Heuristic.Category)),
			zap.Error(err))
		return esc.Heuristic
	}
	c.aiCount.Add(1)
	c.logger.Debug("reply classified by AI",
		zap.String("heuristic", string(esc.Heuristic.Category)),
		zap.String("category", string(cls.Category)),
		zap.Float64("confidence", cls.Confidence))
	return cls
}

// Stats returns stage counters.
func (c *Classifier) Stats() Stats {
	return Stats{
		FastPath:    c.fastPath.Load(),
		AI:          c.aiCount.Load(),
		AIFallbacks: c.aiFallbacks.Load(),
	}
}

// Heuristic builds a full classification from the rules alone.
func Heuristic(subject, cleaned string, gate ReviewGate) models.Classification {
	category, confidence := matchCategory(subject, cleaned)
	if strings.TrimSpace(cleaned) == "" && subject == "" {
		category, confidence = models.CategoryUnclear, unclearConfidence
	}

	intents := ExtractIntents(cleaned)
	cls := models.Classification{
		Category:        category,
		Sentiment:       ScoreSentiment(cleaned),
		Intents:         intents,
		Entities:        ExtractEntities(cleaned),
		SuggestedAction: SuggestAction(category, intents),
		Confidence:      confidence,
		Source:          models.SourceRules,
	}
	if category == models.CategoryObjection {
		cls.Objection = AnalyzeObjection(cleaned)
	}
	cls.RequiresHumanReview = gate.RequiresReview(cls)
	return cls
}
