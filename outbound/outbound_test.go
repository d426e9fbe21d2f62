// ABOUTME: Tests for outbound dispatch, channels, and MIME rendering
// ABOUTME: Uses a temp SQLite database for counters, suppressions, and the outbox
package outbound

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
)

func setup(t *testing.T, limit int) (*Dispatcher, *RecordingChannel) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "outbound.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	d := NewDispatcher(database, limit, nil)
	ch := &RecordingChannel{}
	d.Register("email", ch)
	d.Register("linkedin", NewOutboxChannel(database, "linkedin"))
	return d, ch
}

func emailTo(addr string) Message {
	return Message{ProspectID: uuid.New(), Channel: "email", To: addr, Subject: "Hi", Body: "Hello"}
}

func TestDispatcher_DailyLimit(t *testing.T) {
	d, ch := setup(t, 2)
	ctx := context.Background()

	_, err := d.Send(ctx, emailTo("a@example.com"))
	require.NoError(t, err)
	_, err = d.Send(ctx, emailTo("b@example.com"))
	require.NoError(t, err)

	_, err = d.Send(ctx, emailTo("c@example.com"))
	assert.ErrorIs(t, err, ErrDailyLimitReached)

	assert.Len(t, ch.Sent(), 2)
	assert.Equal(t, DispatcherStats{Sent: 2, RateLimited: 1}, d.Stats())

	remaining, err := d.Remaining()
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestDispatcher_LimitResetsNextDay(t *testing.T) {
	d, _ := setup(t, 1)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	d.SetClock(func() time.Time { return day })

	_, err := d.Send(ctx, emailTo("a@example.com"))
	require.NoError(t, err)
	_, err = d.Send(ctx, emailTo("b@example.com"))
	assert.ErrorIs(t, err, ErrDailyLimitReached)

	day = day.Add(2 * time.Hour)
	_, err = d.Send(ctx, emailTo("b@example.com"))
	assert.NoError(t, err)
}

func TestDispatcher_FailedSendReleasesSlot(t *testing.T) {
	d, ch := setup(t, 1)
	ctx := context.Background()

	ch.Err = errors.New("smtp down")
	_, err := d.Send(ctx, emailTo("a@example.com"))
	require.Error(t, err)

	ch.Err = nil
	_, err = d.Send(ctx, emailTo("a@example.com"))
	assert.NoError(t, err)
}

func TestDispatcher_Suppressed(t *testing.T) {
	d, ch := setup(t, 10)
	require.NoError(t, db.AddSuppression(d.db, "Gone@Example.com", "unsubscribe"))

	_, err := d.Send(context.Background(), emailTo("gone@example.com"))
	assert.ErrorIs(t, err, ErrSuppressed)
	assert.Empty(t, ch.Sent())
}

func TestDispatcher_UnknownChannel(t *testing.T) {
	d, _ := setup(t, 10)
	msg := emailTo("a@example.com")
	msg.Channel = "fax"

	_, err := d.Send(context.Background(), msg)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestDispatcher_NoLimit(t *testing.T) {
	d, _ := setup(t, 0)
	for i := 0; i < 5; i++ {
		_, err := d.Send(context.Background(), emailTo("a@example.com"))
		require.NoError(t, err)
	}
	remaining, err := d.Remaining()
	require.NoError(t, err)
	assert.Equal(t, -1, remaining)
}

func TestOutboxChannel(t *testing.T) {
	d, _ := setup(t, 10)
	msg := Message{ProspectID: uuid.New(), Channel: "linkedin", To: "https://linkedin.com/in/jane", Body: "Hi Jane"}

	ack, err := d.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, ack.Manual)

	queued, err := db.ListOutboxMessages(d.db, "linkedin")
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, "Hi Jane", queued[0].Body)
	assert.Equal(t, msg.ProspectID, queued[0].ProspectID)

	_, err = NewOutboxChannel(d.db, "linkedin").Send(context.Background(), Message{Body: "x"})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestBuildMIME(t *testing.T) {
	raw := string(BuildMIME("me@vendor.com", "Sam Seller", Message{
		To:      "jane@example.com",
		ToName:  "Jane Doe",
		Subject: "Quick question",
		Body:    "Line one\nLine two",
	}))

	assert.Contains(t, raw, "From: \"Sam Seller\" <me@vendor.com>\r\n")
	assert.Contains(t, raw, "To: \"Jane Doe\" <jane@example.com>\r\n")
	assert.Contains(t, raw, "Subject: Quick question\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nLine one\r\nLine two"))

	// gmail expects URL-safe base64
	encoded := base64.URLEncoding.EncodeToString([]byte(raw))
	assert.NotContains(t, encoded, "+")
}
