// ABOUTME: Routes outbound messages to channels under the daily send cap
// ABOUTME: Refuses suppressed recipients and reserves a per-day slot before each send
package outbound

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
)

// Dispatcher is the single path every outbound message takes.
type Dispatcher struct {
	db         *sql.DB
	channels   map[string]Channel
	dailyLimit int
	logger     *zap.Logger
	now        func() time.Time

	sent        atomic.Int64
	rateLimited atomic.Int64
}

// DispatcherStats counts sends since start.
type DispatcherStats struct {
	Sent        int64 `json:"sent"`
	RateLimited int64 `json:"rate_limited"`
}

// NewDispatcher creates a dispatcher. A dailyLimit of 0 disables the cap.
func NewDispatcher(database *sql.DB, dailyLimit int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		db:         database,
		channels:   make(map[string]Channel),
		dailyLimit: dailyLimit,
		logger:     logger,
		now:        time.Now,
	}
}

// Register makes ch available under name.
func (d *Dispatcher) Register(name string, ch Channel) {
	d.channels[name] = ch
}

// SetClock replaces the time source used for the daily counter.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// HasChannel reports whether a channel is registered under name.
func (d *Dispatcher) HasChannel(name string) bool {
	_, ok := d.channels[name]
	return ok
}

// Send delivers msg. It returns ErrSuppressed for suppressed recipients and
// ErrDailyLimitReached when the day's cap is used up.
func (d *Dispatcher) Send(ctx context.Context, msg Message) (Ack, error) {
	ch, ok := d.channels[msg.Channel]
	if !ok {
		return Ack{}, fmt.Errorf("%w: %q", ErrUnknownChannel, msg.Channel)
	}

	suppressed, err := db.IsSuppressed(d.db, msg.To)
	if err != nil {
		return Ack{}, err
	}
	if suppressed {
		return Ack{}, ErrSuppressed
	}

	now := d.now()
	if d.dailyLimit > 0 {
		ok, err := db.ReserveSend(d.db, now, d.dailyLimit)
		if err != nil {
			return Ack{}, err
		}
		if !ok {
			d.rateLimited.Add(1)
			d.logger.Info("daily send limit reached",
				zap.Int("limit", d.dailyLimit),
				zap.String("prospect_id", msg.ProspectID.String()))
			return Ack{}, ErrDailyLimitReached
		}
	}

	ack, err := ch.Send(ctx, msg)
	if err != nil {
		if d.dailyLimit > 0 {
			if rerr := db.ReleaseSend(d.db, now); rerr != nil {
				d.logger.Warn("failed to release send slot", zap.Error(rerr))
			}
		}
		return Ack{}, err
	}

	d.sent.Add(1)
	d.logger.Info("message sent",
		zap.String("channel", msg.Channel),
		zap.String("prospect_id", msg.ProspectID.String()),
		zap.Bool("manual", ack.Manual))
	return ack, nil
}

// Remaining returns how many sends are left today, or -1 without a cap.
func (d *Dispatcher) Remaining() (int, error) {
	if d.dailyLimit <= 0 {
		return -1, nil
	}
	n, err := db.GetSendCount(d.db, d.now())
	if err != nil {
		return 0, err
	}
	if n >= d.dailyLimit {
		return 0, nil
	}
	return d.dailyLimit - n, nil
}

// Stats returns send counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Sent:        d.sent.Load(),
		RateLimited: d.rateLimited.Load(),
	}
}
