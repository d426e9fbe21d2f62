// ABOUTME: Tests for reply and touch database operations
// ABOUTME: Covers status transitions and the replied-since check used by follow-ups
package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

func TestReplyLifecycle(t *testing.T) {
	database := openTestDB(t)
	p := &models.Prospect{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, CreateProspect(database, p))

	reply := &models.Reply{ProspectID: p.ID, Channel: models.ChannelEmail, Body: "Sounds good", ExternalID: "gmail-1"}
	require.NoError(t, CreateReply(database, reply))

	newReplies, err := ListRepliesByStatus(database, models.ReplyNew, 0)
	require.NoError(t, err)
	require.Len(t, newReplies, 1)

	exists, err := ReplyExistsForExternalID(database, "gmail-1")
	require.NoError(t, err)
	assert.True(t, exists)

	// duplicate external IDs are rejected
	assert.Error(t, CreateReply(database, &models.Reply{ProspectID: p.ID, Channel: models.ChannelEmail, Body: "again", ExternalID: "gmail-1"}))

	pending, err := HasNewReplies(database, p.ID)
	require.NoError(t, err)
	assert.True(t, pending)

	require.NoError(t, UpdateReplyStatus(database, reply.ID, models.ReplyQueued))
	pending, err = HasNewReplies(database, p.ID)
	require.NoError(t, err)
	assert.False(t, pending, "queued replies are no longer new")

	require.NoError(t, MarkReplyProcessed(database, reply.ID, models.CategoryPositiveInterest))
	got, err := GetReply(database, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReplyProcessed, got.Status)
	assert.Equal(t, string(models.CategoryPositiveInterest), got.Category)

	pending, err = HasNewReplies(database, p.ID)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestHasMeaningfulReplySince(t *testing.T) {
	database := openTestDB(t)
	p := &models.Prospect{Name: "Bo"}
	require.NoError(t, CreateProspect(database, p))

	contacted := time.Now().UTC().Add(-48 * time.Hour)

	old := &models.Reply{ProspectID: p.ID, Channel: models.ChannelEmail, Body: "earlier", ReceivedAt: contacted.Add(-time.Hour)}
	require.NoError(t, CreateReply(database, old))
	require.NoError(t, MarkReplyProcessed(database, old.ID, models.CategoryQuestion))

	ooo := &models.Reply{ProspectID: p.ID, Channel: models.ChannelEmail, Body: "I am out of office", ReceivedAt: contacted.Add(time.Hour)}
	require.NoError(t, CreateReply(database, ooo))
	require.NoError(t, MarkReplyProcessed(database, ooo.ID, models.CategoryOutOfOffice))

	replied, err := HasMeaningfulReplySince(database, p.ID, contacted)
	require.NoError(t, err)
	assert.False(t, replied)

	genuine := &models.Reply{ProspectID: p.ID, Channel: models.ChannelEmail, Body: "Tell me more", ReceivedAt: contacted.Add(2 * time.Hour)}
	require.NoError(t, CreateReply(database, genuine))

	// an unclassified reply already counts
	replied, err = HasMeaningfulReplySince(database, p.ID, contacted)
	require.NoError(t, err)
	assert.True(t, replied)

	require.NoError(t, MarkReplyProcessed(database, genuine.ID, models.CategoryPositiveInterest))
	replied, err = HasMeaningfulReplySince(database, p.ID, contacted)
	require.NoError(t, err)
	assert.True(t, replied)
}

func TestTouches(t *testing.T) {
	database := openTestDB(t)
	p := &models.Prospect{Name: "Cy"}
	require.NoError(t, CreateProspect(database, p))

	base := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		require.NoError(t, CreateTouch(database, &models.Touch{
			ProspectID:  p.ID,
			SeriesID:    "series-1",
			TouchNumber: i,
			Channel:     models.ChannelEmail,
			SentAt:      base.Add(time.Duration(i) * time.Hour),
		}))
	}

	// touch numbers are unique per series
	assert.Error(t, CreateTouch(database, &models.Touch{ProspectID: p.ID, SeriesID: "series-1", TouchNumber: 2, Channel: models.ChannelEmail}))

	touches, err := GetTouchesForProspect(database, p.ID)
	require.NoError(t, err)
	require.Len(t, touches, 3)
	assert.Equal(t, 1, touches[0].TouchNumber)

	last, err := LastTouchNumber(database, "series-1")
	require.NoError(t, err)
	assert.Equal(t, 3, last)

	none, err := LastTouchNumber(database, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, none)
}
