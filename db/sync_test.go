// ABOUTME: Tests for reply source bookkeeping
// ABOUTME: Covers cursor advancement, poll status updates, and the imported-message log
package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCursorAndStatus(t *testing.T) {
	database := openTestDB(t)

	state, err := GetSyncState(database, "gmail")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, UpdateSyncStatus(database, "gmail", SyncRunning, nil))
	require.NoError(t, AdvanceSyncCursor(database, "gmail", "1234"))

	msg := "1 message(s) failed to import"
	require.NoError(t, UpdateSyncStatus(database, "gmail", SyncIdle, &msg))
	assert.Error(t, UpdateSyncStatus(database, "gmail", "paused", nil))

	state, err = GetSyncState(database, "gmail")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, SyncIdle, state.Status)
	require.NotNil(t, state.Cursor)
	assert.Equal(t, "1234", *state.Cursor, "a status update leaves the cursor alone")
	require.NotNil(t, state.ErrorMessage)
	assert.NotNil(t, state.LastSyncTime)

	require.NoError(t, AdvanceSyncCursor(database, "gmail", "1300"))
	states, err := ListSyncStates(database)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "1300", *states[0].Cursor)
	assert.Nil(t, states[0].ErrorMessage)
}

func TestRecordReplyImport(t *testing.T) {
	database := openTestDB(t)

	imported, err := IsMessageImported(database, "gmail", "m-1")
	require.NoError(t, err)
	assert.False(t, imported)

	replyID := uuid.New()
	require.NoError(t, RecordReplyImport(database, "gmail", "m-1", replyID, `{"subject":"Re: hi"}`))

	imported, err = IsMessageImported(database, "gmail", "m-1")
	require.NoError(t, err)
	assert.True(t, imported)

	var entityType, entityID string
	require.NoError(t, database.QueryRow(`SELECT entity_type, entity_id FROM sync_log WHERE source_id = ?`, "m-1").Scan(&entityType, &entityID))
	assert.Equal(t, SyncEntityReply, entityType)
	assert.Equal(t, replyID.String(), entityID)

	// a message is logged once per source
	assert.Error(t, RecordReplyImport(database, "gmail", "m-1", uuid.New(), ""))
}
