// ABOUTME: Inbound reply database operations
// ABOUTME: Stores replies, tracks their processing status, and answers "replied since" checks
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

const replyColumns = `id, prospect_id, channel, subject, body, received_at, external_id, thread_id, status, category`

// CreateReply stores an inbound reply with status new.
func CreateReply(db *sql.DB, reply *models.Reply) error {
	reply.ID = uuid.New()
	if reply.ReceivedAt.IsZero() {
		reply.ReceivedAt = time.Now().UTC()
	}
	if reply.Status == "" {
		reply.Status = models.ReplyNew
	}

	var externalID interface{}
	if reply.ExternalID != "" {
		externalID = reply.ExternalID
	}

	_, err := db.Exec(`
		INSERT INTO replies (`+replyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, reply.ID.String(), reply.ProspectID.String(), reply.Channel, reply.Subject, reply.Body,
		reply.ReceivedAt.UTC(), externalID, reply.ThreadID, reply.Status, reply.Category)
	if err != nil {
		return fmt.Errorf("failed to create reply: %w", err)
	}
	return nil
}

func scanReply(row interface{ Scan(...interface{}) error }) (*models.Reply, error) {
	r := &models.Reply{}
	var subject, externalID, threadID, category sql.NullString
	err := row.Scan(&r.ID, &r.ProspectID, &r.Channel, &subject, &r.Body, &r.ReceivedAt,
		&externalID, &threadID, &r.Status, &category)
	if err != nil {
		return nil, err
	}
	r.Subject = subject.String
	r.ExternalID = externalID.String
	r.ThreadID = threadID.String
	r.Category = category.String
	return r, nil
}

func GetReply(db *sql.DB, id uuid.UUID) (*models.Reply, error) {
	r, err := scanReply(db.QueryRow(`SELECT `+replyColumns+` FROM replies WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}
	return r, nil
}

func queryReplies(db *sql.DB, query string, args ...interface{}) ([]models.Reply, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	defer rows.Close()

	var replies []models.Reply
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, *r)
	}
	return replies, rows.Err()
}

// ListRepliesByStatus returns replies in a status, oldest first.
func ListRepliesByStatus(db *sql.DB, status string, limit int) ([]models.Reply, error) {
	if limit <= 0 {
		limit = 100
	}
	return queryReplies(db, `
		SELECT `+replyColumns+` FROM replies
		WHERE status = ?
		ORDER BY received_at ASC
		LIMIT ?
	`, status, limit)
}

// GetRepliesForProspect returns a prospect's replies, oldest first.
func GetRepliesForProspect(db *sql.DB, prospectID uuid.UUID) ([]models.Reply, error) {
	return queryReplies(db, `
		SELECT `+replyColumns+` FROM replies
		WHERE prospect_id = ?
		ORDER BY received_at ASC
	`, prospectID.String())
}

func UpdateReplyStatus(db *sql.DB, id uuid.UUID, status string) error {
	_, err := db.Exec(`UPDATE replies SET status = ? WHERE id = ?`, status, id.String())
	if err != nil {
		return fmt.Errorf("failed to update reply status: %w", err)
	}
	return nil
}

// MarkReplyProcessed records the final category of a reply.
func MarkReplyProcessed(db *sql.DB, id uuid.UUID, category models.Category) error {
	_, err := db.Exec(`
		UPDATE replies SET status = ?, category = ? WHERE id = ?
	`, models.ReplyProcessed, string(category), id.String())
	if err != nil {
		return fmt.Errorf("failed to mark reply processed: %w", err)
	}
	return nil
}

// HasMeaningfulReplySince reports whether the prospect sent a reply after
// since. Automated replies (out of office, auto reply) do not count. A reply
// that was never classified counts, since only a classification can mark it
// automated.
func HasMeaningfulReplySince(db *sql.DB, prospectID uuid.UUID, since time.Time) (bool, error) {
	replies, err := GetRepliesForProspect(db, prospectID)
	if err != nil {
		return false, err
	}
	for _, r := range replies {
		if !r.ReceivedAt.After(since) {
			continue
		}
		if r.Status == models.ReplyProcessed && models.Category(r.Category).IsAutomated() {
			continue
		}
		return true, nil
	}
	return false, nil
}

// ReplyExistsForExternalID reports whether a message was already ingested.
func ReplyExistsForExternalID(db *sql.DB, externalID string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM replies WHERE external_id = ?`, externalID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check reply: %w", err)
	}
	return count > 0, nil
}

// HasNewReplies reports whether the prospect has replies that no respond
// task has picked up yet.
func HasNewReplies(db *sql.DB, prospectID uuid.UUID) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM replies WHERE prospect_id = ? AND status = ?
	`, prospectID.String(), models.ReplyNew).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count new replies: %w", err)
	}
	return count > 0, nil
}
