// ABOUTME: Agent CLI commands
// ABOUTME: Runs the outreach loop in the foreground and reports pipeline status
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/config"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/outbound"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/sync"
)

// AgentRunCommand runs the agent until interrupted, or for a single cycle
// with --once.
func AgentRunCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	once := fs.Bool("once", false, "Run a single cycle and exit")
	interval := fs.Duration("interval", 0, "Cycle interval (overrides loop.interval)")
	verbose := fs.Bool("verbose", false, "Debug logging")
	_ = fs.Parse(args)

	if *interval > 0 {
		cfg.Loop.Interval = *interval
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := BuildRuntime(ctx, cfg, database, logger, sync.TokenPath())
	if err != nil {
		return err
	}
	if rt.Inbox == nil {
		logger.Info("no gmail token, replies must be added manually and email goes to the outbox")
	}

	if *once {
		if _, err := rt.Queue.Restore(ctx); err != nil {
			return err
		}
		report := rt.Agent.RunCycle(ctx)
		return printJSON(report)
	}

	logger.Info("agent starting",
		zap.Duration("interval", cfg.Loop.Interval),
		zap.Int("daily_limit", cfg.Sending.DailyLimit),
		zap.Bool("auto_approve", cfg.Router.AutoApprove))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return rt.Agent.Run(gctx)
	})
	g.Go(func() error {
		reportHealth(gctx, rt, cfg.Loop.Interval, logger)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("agent stopped: %w", err)
	}

	logger.Info("agent stopped", zap.Any("health", rt.Agent.Health()))
	return nil
}

// reportHealth logs a health snapshot once per interval until ctx ends.
func reportHealth(ctx context.Context, rt *Runtime, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("health",
				zap.Any("agent", rt.Agent.Health()),
				zap.Any("decisions", rt.Engine.Stats()),
				zap.Any("classifier", rt.Classifier.Stats()),
				zap.Any("outbound", rt.Dispatcher.Stats()))
		}
	}
}

// AgentStatusCommand prints pipeline counts, queue depth, and sync state.
func AgentStatusCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_ = fs.Parse(args)

	prospects, err := db.CountProspectsByStatus(database)
	if err != nil {
		return err
	}
	tasks, err := db.NewTaskRepository(database).CountByStatus(context.Background())
	if err != nil {
		return err
	}
	taskCounts := make(map[string]int, len(tasks))
	for status, n := range tasks {
		taskCounts[string(status)] = n
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROSPECTS\t")
	writeCountRows(w, prospects)
	_, _ = fmt.Fprintln(w, "\nTASKS\t")
	writeCountRows(w, taskCounts)

	remaining, err := outbound.NewDispatcher(database, cfg.Sending.DailyLimit, nil).Remaining()
	if err != nil {
		return err
	}
	if cfg.Sending.DailyLimit > 0 {
		_, _ = fmt.Fprintf(w, "\nSENDS LEFT TODAY\t%d of %d\n", remaining, cfg.Sending.DailyLimit)
	}

	states, err := db.ListSyncStates(database)
	if err != nil {
		return err
	}
	for _, s := range states {
		last := "never"
		if s.LastSyncTime != nil {
			last = s.LastSyncTime.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "\nSYNC %s\t%s (last %s)\n", s.Service, s.Status, last)
		if s.ErrorMessage != nil {
			_, _ = fmt.Fprintf(w, "  error\t%s\n", *s.ErrorMessage)
		}
	}
	return w.Flush()
}

func writeCountRows(w *tabwriter.Writer, counts map[string]int) {
	if len(counts) == 0 {
		_, _ = fmt.Fprintln(w, "  none\t")
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s\t%d\n", k, counts[k])
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
