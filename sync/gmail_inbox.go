// ABOUTME: Gmail inbox that ingests prospect replies into the replies table
// ABOUTME: Incremental historyId sync with a time-window fallback, dedup through sync_log, and prospect matching
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

const (
	gmailService = "gmail"

	// DefaultLookback is the window searched when there is no usable history id.
	DefaultLookback = 7 * 24 * time.Hour
)

// GmailInbox polls Gmail for replies from known prospects.
type GmailInbox struct {
	db       *sql.DB
	source   MessageSource
	logger   *zap.Logger
	lookback time.Duration
	now      func() time.Time
}

// NewGmailInbox creates an inbox over source.
func NewGmailInbox(database *sql.DB, source MessageSource, logger *zap.Logger) *GmailInbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GmailInbox{
		db:       database,
		source:   source,
		logger:   logger,
		lookback: DefaultLookback,
		now:      time.Now,
	}
}

// SetLookback changes the fallback search window.
func (g *GmailInbox) SetLookback(d time.Duration) {
	if d > 0 {
		g.lookback = d
	}
}

// Poll imports new replies and returns how many were stored. Sync state is
// left at "error" with the message when the poll fails. When any message
// fails to import the history id is not advanced, so the next poll reads the
// same history again and the messages already stored are skipped.
func (g *GmailInbox) Poll(ctx context.Context) (int, error) {
	if err := db.UpdateSyncStatus(g.db, gmailService, db.SyncRunning, nil); err != nil {
		return 0, err
	}

	res, err := g.poll(ctx)
	if err != nil {
		msg := err.Error()
		_ = db.UpdateSyncStatus(g.db, gmailService, db.SyncFailed, &msg)
		return res.imported, err
	}

	if res.failed > 0 {
		msg := fmt.Sprintf("%d message(s) failed to import; history id kept", res.failed)
		g.logger.Warn("reply import incomplete", zap.Int("failed", res.failed), zap.Int("imported", res.imported))
		if err := db.UpdateSyncStatus(g.db, gmailService, db.SyncIdle, &msg); err != nil {
			return res.imported, err
		}
		return res.imported, nil
	}

	if err := db.AdvanceSyncCursor(g.db, gmailService, strconv.FormatUint(res.historyID, 10)); err != nil {
		return res.imported, err
	}
	return res.imported, nil
}

type pollResult struct {
	imported  int
	failed    int
	historyID uint64
}

func (g *GmailInbox) poll(ctx context.Context) (pollResult, error) {
	self, currentHistoryID, err := g.source.Profile(ctx)
	if err != nil {
		return pollResult{}, err
	}
	self = normalizeEmail(self)

	state, err := db.GetSyncState(g.db, gmailService)
	if err != nil {
		return pollResult{}, err
	}

	if start := historyToken(state); start > 0 {
		ids, err := g.collect(ctx, func(page string) ([]string, string, error) {
			return g.source.History(ctx, start, page)
		})
		switch {
		case err == nil:
			return g.importAll(ctx, ids, self, currentHistoryID), nil
		case !isHistoryExpiredError(err):
			return pollResult{}, fmt.Errorf("history sync failed: %w", err)
		}
		g.logger.Warn("history id expired, falling back to search", zap.Uint64("history_id", start))
	}

	since := g.now().Add(-g.lookback)
	if state != nil && state.LastSyncTime != nil && state.LastSyncTime.After(since) {
		since = state.LastSyncTime.Add(-time.Hour)
	}
	query := BuildReplyQuery(since)
	ids, err := g.collect(ctx, func(page string) ([]string, string, error) {
		return g.source.Search(ctx, query, page)
	})
	if err != nil {
		return pollResult{}, err
	}
	return g.importAll(ctx, ids, self, currentHistoryID), nil
}

// collect pages through a listing.
func (g *GmailInbox) collect(ctx context.Context, list func(page string) ([]string, string, error)) ([]string, error) {
	var all []string
	page := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids, next, err := list(page)
		if err != nil {
			return nil, err
		}
		all = append(all, ids...)
		if next == "" {
			return all, nil
		}
		page = next
	}
}

func (g *GmailInbox) importAll(ctx context.Context, ids []string, self string, historyID uint64) pollResult {
	matcher := NewProspectMatcher(g.db)
	res := pollResult{historyID: historyID}
	for _, id := range ids {
		ok, err := g.importMessage(ctx, id, self, matcher)
		if err != nil {
			res.failed++
			g.logger.Warn("failed to import message", zap.String("message_id", id), zap.Error(err))
			continue
		}
		if ok {
			res.imported++
		}
	}
	return res
}

// importMessage stores one message as a reply when it came from a prospect.
func (g *GmailInbox) importMessage(ctx context.Context, id, self string, matcher *ProspectMatcher) (bool, error) {
	exists, err := db.IsMessageImported(g.db, gmailService, id)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	msg, err := g.source.Message(ctx, id)
	if err != nil {
		return false, err
	}
	if hasLabel(msg, "SENT") || hasLabel(msg, "DRAFT") {
		return false, nil
	}

	headers := parseHeaders(msg.Payload)
	_, from := ExtractEmailAddress(headers["From"])
	if from == "" || from == self || IsAutomatedSender(from) || IsBulkMail(headers) {
		return false, nil
	}

	prospect, err := matcher.FindMatch(from)
	if err != nil {
		return false, err
	}
	if prospect == nil {
		return false, nil
	}

	dup, err := db.ReplyExistsForExternalID(g.db, msg.Id)
	if err != nil {
		return false, err
	}
	if dup {
		return false, nil
	}

	reply := &models.Reply{
		ProspectID: prospect.ID,
		Channel:    models.ChannelEmail,
		Subject:    headers["Subject"],
		Body:       ExtractBody(msg.Payload),
		ReceivedAt: receivedAt(msg, headers, g.now),
		ExternalID: msg.Id,
		ThreadID:   msg.ThreadId,
	}
	if reply.Body == "" {
		reply.Body = msg.Snippet
	}
	if err := db.CreateReply(g.db, reply); err != nil {
		return false, err
	}

	metadata, _ := json.Marshal(map[string]string{"subject": reply.Subject, "thread_id": msg.ThreadId})
	if err := db.RecordReplyImport(g.db, gmailService, msg.Id, reply.ID, string(metadata)); err != nil {
		return false, err
	}

	g.logger.Info("reply ingested",
		zap.String("prospect_id", prospect.ID.String()),
		zap.String("message_id", msg.Id))
	return true, nil
}

func receivedAt(msg *gmail.Message, headers map[string]string, now func() time.Time) time.Time {
	if msg.InternalDate > 0 {
		return time.UnixMilli(msg.InternalDate).UTC()
	}
	if t, err := parseEmailDate(headers["Date"]); err == nil {
		return t.UTC()
	}
	return now().UTC()
}

func hasLabel(msg *gmail.Message, label string) bool {
	for _, l := range msg.LabelIds {
		if l == label {
			return true
		}
	}
	return false
}

func historyToken(state *db.SyncState) uint64 {
	if state == nil || state.Cursor == nil || *state.Cursor == "" {
		return 0
	}
	id, err := strconv.ParseUint(*state.Cursor, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// isHistoryExpiredError checks if the error is due to expired historyId
func isHistoryExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "404") || strings.Contains(errStr, "historyId")
}
