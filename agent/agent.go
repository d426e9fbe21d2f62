// ABOUTME: Autonomous agent loop that drives prospects through the outreach lifecycle
// ABOUTME: Each cycle discovers prospects, drains due tasks, queues inbound replies, and dispatches approved drafts
package agent

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/classifier"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/config"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/outbound"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/queue"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/router"
)

// ErrDecisionUnavailable marks a task that needed a decision while the AI
// backend could not be reached.
var ErrDecisionUnavailable = errors.New("decision engine unavailable")

// Decider produces decisions; satisfied by *decision.Engine.
type Decider interface {
	Decide(ctx context.Context, t models.DecisionType, input map[string]interface{}) models.Decision
}

// ReplyClassifier classifies inbound replies; satisfied by *classifier.Classifier.
type ReplyClassifier interface {
	Classify(ctx context.Context, in classifier.ReplyInput) models.Classification
}

// ReplyRouter acts on classified replies; satisfied by *router.Router.
type ReplyRouter interface {
	Route(ctx context.Context, in router.RouteInput) (models.RoutingDecision, error)
}

// Sender delivers outbound messages; satisfied by *outbound.Dispatcher.
type Sender interface {
	Send(ctx context.Context, msg outbound.Message) (outbound.Ack, error)
}

// Inbox pulls new inbound messages into the replies table.
type Inbox interface {
	Poll(ctx context.Context) (int, error)
}

// Deps are the collaborators an agent drives. Inbox and Now are optional.
type Deps struct {
	DB         *sql.DB
	Queue      *queue.Queue
	Decider    Decider
	Classifier ReplyClassifier
	Router     ReplyRouter
	Sender     Sender
	Inbox      Inbox
	Logger     *zap.Logger
	Now        func() time.Time
}

// CycleReport summarizes one pass of the loop.
type CycleReport struct {
	Discovered    int           `json:"discovered"`
	Processed     int           `json:"processed"`
	Failed        int           `json:"failed"`
	Deferred      int           `json:"deferred"`
	RepliesQueued int           `json:"replies_queued"`
	ApprovalsSent int           `json:"approvals_sent"`
	Duration      time.Duration `json:"duration"`
}

// Metrics is the agent's health snapshot.
type Metrics struct {
	Cycles            int64         `json:"cycles"`
	TasksProcessed    int64         `json:"tasks_processed"`
	TasksFailed       int64         `json:"tasks_failed"`
	QueueDepth        int           `json:"queue_depth"`
	FallbackDecisions int64         `json:"fallback_decisions"`
	MessagesSent      int64         `json:"messages_sent"`
	RateLimited       int64         `json:"rate_limited"`
	LastCycle         time.Duration `json:"last_cycle"`
	LastCycleAt       time.Time     `json:"last_cycle_at"`
}

// Agent is the task scheduler. A single goroutine runs cycles; handlers run
// one at a time inside a cycle.
type Agent struct {
	cfg        *config.Config
	db         *sql.DB
	queue      *queue.Queue
	decider    Decider
	classifier ReplyClassifier
	router     ReplyRouter
	sender     Sender
	inbox      Inbox
	logger     *zap.Logger
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool

	cycles      atomic.Int64
	processed   atomic.Int64
	failed      atomic.Int64
	fallbacks   atomic.Int64
	sent        atomic.Int64
	rateLimited atomic.Int64

	mu          sync.Mutex
	lastCycle   time.Duration
	lastCycleAt time.Time
}

// New creates an agent.
func New(cfg *config.Config, deps Deps) *Agent {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	q := deps.Queue
	if q == nil {
		q = queue.New(nil, logger)
	}
	return &Agent{
		cfg:        cfg,
		db:         deps.DB,
		queue:      q,
		decider:    deps.Decider,
		classifier: deps.Classifier,
		router:     deps.Router,
		sender:     deps.Sender,
		inbox:      deps.Inbox,
		logger:     logger,
		now:        func() time.Time { return now().UTC() },
		stop:       make(chan struct{}),
	}
}

// Run restores persisted tasks and then runs a cycle every Loop.Interval
// until Stop is called or ctx is cancelled. Cancellation is a normal
// shutdown and returns nil.
func (a *Agent) Run(ctx context.Context) error {
	restored, err := a.queue.Restore(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("agent started",
		zap.Int("restored_tasks", restored),
		zap.Duration("interval", a.cfg.Loop.Interval))

	ticker := time.NewTicker(a.cfg.Loop.Interval)
	defer ticker.Stop()

	for {
		if a.stopped.Load() {
			break
		}
		a.RunCycle(ctx)

		select {
		case <-ctx.Done():
			a.logger.Info("agent stopped", zap.String("reason", "context cancelled"))
			return nil
		case <-a.stop:
		case <-ticker.C:
		}
	}

	a.logger.Info("agent stopped", zap.String("reason", "stop requested"))
	return nil
}

// Stop asks Run to return after the current cycle. In-flight handler calls
// are not interrupted.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() {
		a.stopped.Store(true)
		close(a.stop)
	})
}

// RunCycle performs one full pass: discover, drain, poll replies, dispatch
// approved drafts, and record metrics.
func (a *Agent) RunCycle(ctx context.Context) CycleReport {
	start := time.Now()
	var report CycleReport

	report.Discovered = a.discover(ctx)
	report.Processed, report.Failed, report.Deferred = a.drain(ctx)
	report.RepliesQueued = a.pollReplies(ctx)
	report.ApprovalsSent = a.dispatchApprovals(ctx)
	report.Duration = time.Since(start)

	a.cycles.Add(1)
	a.mu.Lock()
	a.lastCycle = report.Duration
	a.lastCycleAt = a.now()
	a.mu.Unlock()

	m := a.Health()
	a.logger.Info("cycle complete",
		zap.Int64("cycle", m.Cycles),
		zap.Int("discovered", report.Discovered),
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
		zap.Int("deferred", report.Deferred),
		zap.Int("replies_queued", report.RepliesQueued),
		zap.Int("approvals_sent", report.ApprovalsSent),
		zap.Int("queue_depth", m.QueueDepth),
		zap.Int64("fallback_decisions", m.FallbackDecisions),
		zap.Int64("messages_sent", m.MessagesSent),
		zap.Int64("rate_limited", m.RateLimited),
		zap.Duration("duration", report.Duration))

	return report
}

// Health returns the current metrics.
func (a *Agent) Health() Metrics {
	a.mu.Lock()
	last, lastAt := a.lastCycle, a.lastCycleAt
	a.mu.Unlock()

	return Metrics{
		Cycles:            a.cycles.Load(),
		TasksProcessed:    a.processed.Load(),
		TasksFailed:       a.failed.Load(),
		QueueDepth:        a.queue.Len(),
		FallbackDecisions: a.fallbacks.Load(),
		MessagesSent:      a.sent.Load(),
		RateLimited:       a.rateLimited.Load(),
		LastCycle:         last,
		LastCycleAt:       lastAt,
	}
}

// Queue exposes the task queue for operator tools running in-process.
func (a *Agent) Queue() *queue.Queue {
	return a.queue
}
