// ABOUTME: Ingestion bookkeeping for reply sources in the sync_state and sync_log tables
// ABOUTME: Tracks each inbox's cursor and poll outcome, and which source messages already became replies
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Poll statuses stored in sync_state.
const (
	SyncIdle    = "idle"
	SyncRunning = "syncing"
	SyncFailed  = "error"
)

// SyncEntityReply is the sync_log entity type of an ingested reply.
const SyncEntityReply = "reply"

// SyncState is a reply source's cursor and the outcome of its last poll.
// Cursor is opaque to this package; Gmail stores a history id.
type SyncState struct {
	Service      string
	LastSyncTime *time.Time
	Cursor       *string
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const syncStateColumns = `service, last_sync_time, last_sync_token, status, error_message, created_at, updated_at`

func scanSyncState(row interface{ Scan(...any) error }) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var cursor, status, errorMessage sql.NullString

	if err := row.Scan(&state.Service, &lastSyncTime, &cursor, &status, &errorMessage, &state.CreatedAt, &state.UpdatedAt); err != nil {
		return nil, err
	}
	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if cursor.Valid {
		state.Cursor = &cursor.String
	}
	state.Status = status.String
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}
	return &state, nil
}

// GetSyncState returns the state of a reply source, or nil before its first poll.
func GetSyncState(db *sql.DB, service string) (*SyncState, error) {
	state, err := scanSyncState(db.QueryRow(`SELECT `+syncStateColumns+` FROM sync_state WHERE service = ?`, service))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return state, nil
}

// UpdateSyncStatus records a poll status without moving the cursor. A nil
// errorMsg clears any earlier error.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	switch status {
	case SyncIdle, SyncRunning, SyncFailed:
	default:
		return fmt.Errorf("unknown sync status: %s", status)
	}

	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// AdvanceSyncCursor stores the cursor the next poll starts from and marks the
// source idle. Only a poll that imported every message it saw may call it.
func AdvanceSyncCursor(db *sql.DB, service, cursor string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (service, last_sync_time, last_sync_token, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			last_sync_token = excluded.last_sync_token,
			status = excluded.status,
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, cursor, SyncIdle)
	if err != nil {
		return fmt.Errorf("failed to advance sync cursor: %w", err)
	}
	return nil
}

// IsMessageImported reports whether a source message was already stored as a reply.
func IsMessageImported(db *sql.DB, service, messageID string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sync_log WHERE source_service = ? AND source_id = ?
	`, service, messageID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sync log: %w", err)
	}
	return count > 0, nil
}

// RecordReplyImport links a source message to the reply created from it.
func RecordReplyImport(db *sql.DB, service, messageID string, replyID uuid.UUID, metadata string) error {
	_, err := db.Exec(`
		INSERT INTO sync_log (id, source_service, source_id, entity_type, entity_id, imported_at, metadata)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)
	`, uuid.NewString(), service, messageID, SyncEntityReply, replyID.String(), metadata)
	if err != nil {
		return fmt.Errorf("failed to record reply import: %w", err)
	}
	return nil
}

// ListSyncStates returns every reply source that has polled at least once.
func ListSyncStates(db *sql.DB) ([]SyncState, error) {
	rows, err := db.Query(`SELECT ` + syncStateColumns + ` FROM sync_state ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}
	return states, nil
}
