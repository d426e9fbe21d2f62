package sync

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

type fakeSource struct {
	self       string
	historyID  uint64
	profileErr error
	messages   map[string]*gmail.Message
	searchIDs  []string
	historyIDs []string
	historyErr error
	queries    []string
	starts     []uint64

	// messageErrs fail one fetch of a message each
	messageErrs map[string]error
}

func (f *fakeSource) Profile(ctx context.Context) (string, uint64, error) {
	return f.self, f.historyID, f.profileErr
}

// Search pages two ids at a time.
func (f *fakeSource) Search(ctx context.Context, query, pageToken string) ([]string, string, error) {
	f.queries = append(f.queries, query)

	start := 0
	if pageToken != "" {
		start = int(pageToken[0] - '0')
	}
	end := start + 2
	if end >= len(f.searchIDs) {
		return f.searchIDs[start:], "", nil
	}
	return f.searchIDs[start:end], string(rune('0' + end)), nil
}

func (f *fakeSource) History(ctx context.Context, start uint64, pageToken string) ([]string, string, error) {
	f.starts = append(f.starts, start)
	if f.historyErr != nil {
		return nil, "", f.historyErr
	}
	return f.historyIDs, "", nil
}

func (f *fakeSource) Message(ctx context.Context, id string) (*gmail.Message, error) {
	if err, ok := f.messageErrs[id]; ok {
		delete(f.messageErrs, id)
		return nil, err
	}
	msg, ok := f.messages[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return msg, nil
}

func message(id, from, subject, body string, at time.Time, extraHeaders ...*gmail.MessagePartHeader) *gmail.Message {
	headers := []*gmail.MessagePartHeader{
		{Name: "From", Value: from},
		{Name: "To", Value: "rep@seller.com"},
		{Name: "Subject", Value: subject},
	}
	headers = append(headers, extraHeaders...)
	return &gmail.Message{
		Id:           id,
		ThreadId:     "thread-" + id,
		LabelIds:     []string{"INBOX"},
		InternalDate: at.UnixMilli(),
		Snippet:      "snippet " + id,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers:  headers,
			Body:     &gmail.MessagePartBody{Data: encode(body)},
		},
	}
}

type inboxFixture struct {
	db       *sql.DB
	source   *fakeSource
	inbox    *GmailInbox
	prospect *models.Prospect
	now      time.Time
}

func newInboxFixture(t *testing.T) *inboxFixture {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "inbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	p := &models.Prospect{Name: "Jane Doe", Email: "jane@example.com"}
	require.NoError(t, db.CreateProspect(database, p))

	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	at := now.Add(-2 * time.Hour)

	sent := message("m-sent", "Rep <rep@seller.com>", "Quick question", "outbound", at)
	sent.LabelIds = []string{"SENT"}

	source := &fakeSource{
		self:      "Rep@Seller.com",
		historyID: 1234,
		messages: map[string]*gmail.Message{
			"m-jane":     message("m-jane", "Jane Doe <Jane@Example.com>", "Re: Quick question", "Sounds good, tell me more.", at),
			"m-stranger": message("m-stranger", "someone@else.com", "Hello", "Who is this?", at),
			"m-robot":    message("m-robot", "noreply@example.com", "Receipt", "Your order", at),
			"m-sent":     sent,
			"m-list": message("m-list", "jane@example.com", "Newsletter", "Weekly digest", at,
				&gmail.MessagePartHeader{Name: "List-Unsubscribe", Value: "<mailto:unsub@example.com>"}),
		},
		searchIDs: []string{"m-jane", "m-stranger", "m-robot", "m-sent", "m-list"},
	}

	inbox := NewGmailInbox(database, source, nil)
	inbox.now = func() time.Time { return now }

	return &inboxFixture{db: database, source: source, inbox: inbox, prospect: p, now: now}
}

func TestPollImportsProspectReplies(t *testing.T) {
	f := newInboxFixture(t)

	n, err := f.inbox.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, f.source.queries, 3, "five ids in pages of two")
	assert.Equal(t, BuildReplyQuery(f.now.Add(-DefaultLookback)), f.source.queries[0])
	assert.Empty(t, f.source.starts)

	replies, err := db.GetRepliesForProspect(f.db, f.prospect.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	r := replies[0]
	assert.Equal(t, "Sounds good, tell me more.", r.Body)
	assert.Equal(t, "Re: Quick question", r.Subject)
	assert.Equal(t, "m-jane", r.ExternalID)
	assert.Equal(t, "thread-m-jane", r.ThreadID)
	assert.Equal(t, models.ChannelEmail, r.Channel)
	assert.Equal(t, models.ReplyNew, r.Status)
	assert.True(t, r.ReceivedAt.Equal(f.now.Add(-2*time.Hour)))

	logged, err := db.IsMessageImported(f.db, gmailService, "m-jane")
	require.NoError(t, err)
	assert.True(t, logged)

	state, err := db.GetSyncState(f.db, gmailService)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, db.SyncIdle, state.Status)
	require.NotNil(t, state.Cursor)
	assert.Equal(t, "1234", *state.Cursor)
}

func TestPollUsesHistoryAndSkipsDuplicates(t *testing.T) {
	f := newInboxFixture(t)
	_, err := f.inbox.Poll(context.Background())
	require.NoError(t, err)

	f.source.messages["m-jane-2"] = message("m-jane-2", "jane@example.com", "Re: Quick question", "Actually, can we talk Friday?", f.now)
	f.source.historyIDs = []string{"m-jane", "m-jane-2"}
	f.source.historyID = 1300

	n, err := f.inbox.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint64{1234}, f.source.starts)
	assert.Len(t, f.source.queries, 3, "no search after a usable history id")

	replies, err := db.GetRepliesForProspect(f.db, f.prospect.ID)
	require.NoError(t, err)
	assert.Len(t, replies, 2)

	state, err := db.GetSyncState(f.db, gmailService)
	require.NoError(t, err)
	assert.Equal(t, "1300", *state.Cursor)
}

func TestPollKeepsHistoryIDWhenImportFails(t *testing.T) {
	f := newInboxFixture(t)
	_, err := f.inbox.Poll(context.Background())
	require.NoError(t, err)

	f.source.messages["m-jane-2"] = message("m-jane-2", "jane@example.com", "Re: Quick question", "Friday works.", f.now)
	f.source.messages["m-jane-3"] = message("m-jane-3", "jane@example.com", "Re: Quick question", "Or Monday.", f.now)
	f.source.messageErrs = map[string]error{"m-jane-3": errors.New("rate limit exceeded")}
	f.source.historyIDs = []string{"m-jane-2", "m-jane-3"}
	f.source.historyID = 1300

	n, err := f.inbox.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	state, err := db.GetSyncState(f.db, gmailService)
	require.NoError(t, err)
	assert.Equal(t, db.SyncIdle, state.Status)
	assert.Equal(t, "1234", *state.Cursor)
	require.NotNil(t, state.ErrorMessage)
	assert.Contains(t, *state.ErrorMessage, "failed to import")

	// the same history is read again and only the missed message is stored
	n, err = f.inbox.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint64{1234, 1234}, f.source.starts)

	state, err = db.GetSyncState(f.db, gmailService)
	require.NoError(t, err)
	assert.Equal(t, "1300", *state.Cursor)
	assert.Nil(t, state.ErrorMessage)

	replies, err := db.GetRepliesForProspect(f.db, f.prospect.ID)
	require.NoError(t, err)
	assert.Len(t, replies, 3)
}

func TestPollFallsBackWhenHistoryExpired(t *testing.T) {
	f := newInboxFixture(t)
	require.NoError(t, db.AdvanceSyncCursor(f.db, gmailService, "99"))
	f.source.historyErr = &googleapi.Error{Code: 404, Message: "Requested entity was not found."}

	n, err := f.inbox.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint64{99}, f.source.starts)
	assert.NotEmpty(t, f.source.queries)
}

func TestPollRecordsErrorState(t *testing.T) {
	f := newInboxFixture(t)
	f.source.profileErr = errors.New("token revoked")

	_, err := f.inbox.Poll(context.Background())
	require.Error(t, err)

	state, err := db.GetSyncState(f.db, gmailService)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, db.SyncFailed, state.Status)
	require.NotNil(t, state.ErrorMessage)
	assert.Contains(t, *state.ErrorMessage, "token revoked")
}

func TestPollHistoryFailureIsAnError(t *testing.T) {
	f := newInboxFixture(t)
	require.NoError(t, db.AdvanceSyncCursor(f.db, gmailService, "99"))
	f.source.historyErr = errors.New("connection reset")

	_, err := f.inbox.Poll(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "history sync failed"))
	assert.Empty(t, f.source.queries)
}

func TestIsHistoryExpiredError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"api 404", &googleapi.Error{Code: 404}, true},
		{"wrapped api 404", errors.Join(errors.New("history"), &googleapi.Error{Code: 404}), true},
		{"404 error string", errors.New("googleapi: Error 404: historyId is invalid"), true},
		{"api 500", &googleapi.Error{Code: 500, Message: "backend"}, false},
		{"unrelated error", errors.New("network timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isHistoryExpiredError(tt.err))
		})
	}
}

func TestHistoryToken(t *testing.T) {
	token := func(s string) *db.SyncState { return &db.SyncState{Cursor: &s} }

	assert.Equal(t, uint64(0), historyToken(nil))
	assert.Equal(t, uint64(0), historyToken(&db.SyncState{}))
	assert.Equal(t, uint64(0), historyToken(token("")))
	assert.Equal(t, uint64(0), historyToken(token("abc")))
	assert.Equal(t, uint64(12345678), historyToken(token("12345678")))
}
