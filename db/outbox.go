// ABOUTME: Manual outbox database operations
// ABOUTME: Holds messages for channels without an API that a person sends by hand
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage is a message waiting to be sent manually.
type OutboxMessage struct {
	ID         uuid.UUID
	ProspectID uuid.UUID
	Channel    string
	Recipient  string
	Subject    string
	Body       string
	Status     string
	CreatedAt  time.Time
}

func CreateOutboxMessage(db *sql.DB, msg *OutboxMessage) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now().UTC()
	if msg.Status == "" {
		msg.Status = "queued"
	}
	_, err := db.Exec(`
		INSERT INTO outbox (id, prospect_id, channel, recipient, subject, body, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID.String(), msg.ProspectID.String(), msg.Channel, msg.Recipient, msg.Subject, msg.Body, msg.Status, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to queue outbox message: %w", err)
	}
	return nil
}

func ListOutboxMessages(db *sql.DB, channel string) ([]OutboxMessage, error) {
	rows, err := db.Query(`
		SELECT id, prospect_id, channel, recipient, subject, body, status, created_at
		FROM outbox WHERE channel = ? AND status = 'queued'
		ORDER BY created_at ASC
	`, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var msgs []OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		var subject sql.NullString
		if err := rows.Scan(&m.ID, &m.ProspectID, &m.Channel, &m.Recipient, &subject, &m.Body, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		m.Subject = subject.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
