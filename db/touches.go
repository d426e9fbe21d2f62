// ABOUTME: Outbound touch database operations
// ABOUTME: Records each sent message of a follow-up series and answers series history lookups
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// CreateTouch records a sent touch. A second touch with the same series and
// number is rejected by the unique index.
func CreateTouch(db *sql.DB, touch *models.Touch) error {
	touch.ID = uuid.New()
	if touch.SentAt.IsZero() {
		touch.SentAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO touches (id, prospect_id, series_id, touch_number, channel, subject, body, sent_at, task_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, touch.ID.String(), touch.ProspectID.String(), touch.SeriesID, touch.TouchNumber, touch.Channel,
		touch.Subject, touch.Body, touch.SentAt.UTC(), touch.TaskID)
	if err != nil {
		return fmt.Errorf("failed to create touch: %w", err)
	}
	return nil
}

// GetTouchesForProspect returns touches in send order.
func GetTouchesForProspect(db *sql.DB, prospectID uuid.UUID) ([]models.Touch, error) {
	rows, err := db.Query(`
		SELECT id, prospect_id, series_id, touch_number, channel, subject, body, sent_at, task_id
		FROM touches
		WHERE prospect_id = ?
		ORDER BY sent_at ASC, touch_number ASC
	`, prospectID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query touches: %w", err)
	}
	defer rows.Close()

	var touches []models.Touch
	for rows.Next() {
		var t models.Touch
		var subject, body, taskID sql.NullString
		if err := rows.Scan(&t.ID, &t.ProspectID, &t.SeriesID, &t.TouchNumber, &t.Channel,
			&subject, &body, &t.SentAt, &taskID); err != nil {
			return nil, fmt.Errorf("failed to scan touch: %w", err)
		}
		t.Subject = subject.String
		t.Body = body.String
		t.TaskID = taskID.String
		touches = append(touches, t)
	}

	return touches, rows.Err()
}

// LastTouchNumber returns the highest touch number recorded for a series, or 0.
func LastTouchNumber(db *sql.DB, seriesID string) (int, error) {
	var n sql.NullInt64
	err := db.QueryRow(`SELECT MAX(touch_number) FROM touches WHERE series_id = ?`, seriesID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to get last touch: %w", err)
	}
	return int(n.Int64), nil
}
