// ABOUTME: Approval queue for drafted responses awaiting human sign-off
// ABOUTME: Defines the ApprovalQueue interface and its SQLite implementation
package router

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// Draft is a response waiting for approval.
type Draft struct {
	ProspectID uuid.UUID
	ReplyID    *uuid.UUID
	Channel    string
	Subject    string
	Body       string
	Reasoning  string
	Confidence float64
}

// ApprovalQueue holds drafts until a human approves or rejects them.
type ApprovalQueue interface {
	Enqueue(ctx context.Context, d Draft) (uuid.UUID, error)
}

// DBApprovalQueue stores drafts in the approval_requests table.
type DBApprovalQueue struct {
	db *sql.DB
}

func NewDBApprovalQueue(database *sql.DB) *DBApprovalQueue {
	return &DBApprovalQueue{db: database}
}

func (q *DBApprovalQueue) Enqueue(ctx context.Context, d Draft) (uuid.UUID, error) {
	req := &models.ApprovalRequest{
		ProspectID: d.ProspectID,
		ReplyID:    d.ReplyID,
		Channel:    d.Channel,
		Subject:    d.Subject,
		Draft:      d.Body,
		Reasoning:  d.Reasoning,
		Confidence: d.Confidence,
	}
	if err := db.CreateApprovalRequest(q.db, req); err != nil {
		return uuid.Nil, err
	}
	return req.ID, nil
}
