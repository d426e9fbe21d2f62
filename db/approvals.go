// ABOUTME: Approval request database operations
// ABOUTME: Queue of drafted responses waiting for a human to approve, reject, or for the loop to send
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

const approvalColumns = `id, prospect_id, reply_id, channel, subject, draft, reasoning, confidence, status, created_at, reviewed_at`

func CreateApprovalRequest(db *sql.DB, req *models.ApprovalRequest) error {
	req.ID = uuid.New()
	req.CreatedAt = time.Now().UTC()
	if req.Status == "" {
		req.Status = models.ApprovalPending
	}

	_, err := db.Exec(`
		INSERT INTO approval_requests (`+approvalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID.String(), req.ProspectID.String(), nullableUUID(req.ReplyID), req.Channel, req.Subject,
		req.Draft, req.Reasoning, req.Confidence, req.Status, req.CreatedAt, nullableTime(req.ReviewedAt))
	if err != nil {
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	return nil
}

func scanApproval(row interface{ Scan(...interface{}) error }) (*models.ApprovalRequest, error) {
	a := &models.ApprovalRequest{}
	var replyID, subject, reasoning sql.NullString
	var reviewedAt sql.NullTime
	err := row.Scan(&a.ID, &a.ProspectID, &replyID, &a.Channel, &subject, &a.Draft, &reasoning,
		&a.Confidence, &a.Status, &a.CreatedAt, &reviewedAt)
	if err != nil {
		return nil, err
	}
	a.ReplyID = parseNullUUID(replyID)
	a.Subject = subject.String
	a.Reasoning = reasoning.String
	a.ReviewedAt = timePtr(reviewedAt)
	return a, nil
}

func GetApprovalRequest(db *sql.DB, id uuid.UUID) (*models.ApprovalRequest, error) {
	a, err := scanApproval(db.QueryRow(`SELECT `+approvalColumns+` FROM approval_requests WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return a, nil
}

// ListApprovalRequests returns requests in a status, oldest first.
func ListApprovalRequests(db *sql.DB, status string, limit int) ([]models.ApprovalRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT `+approvalColumns+` FROM approval_requests
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval requests: %w", err)
	}
	defer rows.Close()

	var requests []models.ApprovalRequest
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}
		requests = append(requests, *a)
	}
	return requests, rows.Err()
}

// ReviewApprovalRequest moves a pending request to approved or rejected.
// An edited draft replaces the stored one when non-empty.
func ReviewApprovalRequest(db *sql.DB, id uuid.UUID, approve bool, editedDraft string) error {
	status := models.ApprovalRejected
	if approve {
		status = models.ApprovalApproved
	}

	res, err := db.Exec(`
		UPDATE approval_requests
		SET status = ?, draft = CASE WHEN ? != '' THEN ? ELSE draft END, reviewed_at = ?
		WHERE id = ? AND status = ?
	`, status, editedDraft, editedDraft, time.Now().UTC(), id.String(), models.ApprovalPending)
	if err != nil {
		return fmt.Errorf("failed to review approval request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no pending approval request %s", id)
	}
	return nil
}

// MarkApprovalSent records that an approved draft went out.
func MarkApprovalSent(db *sql.DB, id uuid.UUID) error {
	_, err := db.Exec(`UPDATE approval_requests SET status = ? WHERE id = ?`, models.ApprovalSent, id.String())
	if err != nil {
		return fmt.Errorf("failed to mark approval sent: %w", err)
	}
	return nil
}
