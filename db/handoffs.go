// ABOUTME: Human handoff database operations
// ABOUTME: Records conversations escalated to a human owner and their resolution
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

const handoffColumns = `id, prospect_id, reply_id, reason, summary, excerpt, status, created_at, resolved_at`

func CreateHandoff(db *sql.DB, h *models.Handoff) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now().UTC()
	if h.Status == "" {
		h.Status = models.HandoffOpen
	}

	_, err := db.Exec(`
		INSERT INTO handoffs (`+handoffColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ID.String(), h.ProspectID.String(), nullableUUID(h.ReplyID), h.Reason, h.Summary, h.Excerpt,
		h.Status, h.CreatedAt, nullableTime(h.ResolvedAt))
	if err != nil {
		return fmt.Errorf("failed to create handoff: %w", err)
	}
	return nil
}

func scanHandoff(row interface{ Scan(...interface{}) error }) (*models.Handoff, error) {
	h := &models.Handoff{}
	var replyID, summary, excerpt sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(&h.ID, &h.ProspectID, &replyID, &h.Reason, &summary, &excerpt, &h.Status, &h.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	h.ReplyID = parseNullUUID(replyID)
	h.Summary = summary.String
	h.Excerpt = excerpt.String
	h.ResolvedAt = timePtr(resolvedAt)
	return h, nil
}

// GetOpenHandoff returns the prospect's open handoff, if any.
func GetOpenHandoff(db *sql.DB, prospectID uuid.UUID) (*models.Handoff, error) {
	h, err := scanHandoff(db.QueryRow(`
		SELECT `+handoffColumns+` FROM handoffs
		WHERE prospect_id = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, prospectID.String(), models.HandoffOpen))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open handoff: %w", err)
	}
	return h, nil
}

// ListHandoffs returns handoffs in a status, newest first.
func ListHandoffs(db *sql.DB, status string, limit int) ([]models.Handoff, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT `+handoffColumns+` FROM handoffs
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query handoffs: %w", err)
	}
	defer rows.Close()

	var handoffs []models.Handoff
	for rows.Next() {
		h, err := scanHandoff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan handoff: %w", err)
		}
		handoffs = append(handoffs, *h)
	}
	return handoffs, rows.Err()
}

func ResolveHandoff(db *sql.DB, id uuid.UUID) error {
	res, err := db.Exec(`
		UPDATE handoffs SET status = ?, resolved_at = ? WHERE id = ? AND status = ?
	`, models.HandoffResolved, time.Now().UTC(), id.String(), models.HandoffOpen)
	if err != nil {
		return fmt.Errorf("failed to resolve handoff: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no open handoff %s", id)
	}
	return nil
}
