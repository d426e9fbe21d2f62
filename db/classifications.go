// ABOUTME: Classification and routing decision persistence
// ABOUTME: Stores the classifier output and the router's audit record for every reply
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// SaveClassification stores the full classification as JSON next to its
// queryable fields.
func SaveClassification(db *sql.DB, replyID, prospectID uuid.UUID, c models.Classification) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode classification: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO classifications (id, reply_id, prospect_id, category, confidence, requires_human_review, source, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), replyID.String(), prospectID.String(), string(c.Category), c.Confidence,
		boolToInt(c.RequiresHumanReview), c.Source, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}
	return nil
}

// GetLatestClassification returns the newest classification for a reply.
func GetLatestClassification(db *sql.DB, replyID uuid.UUID) (*models.Classification, error) {
	var payload string
	err := db.QueryRow(`
		SELECT payload FROM classifications
		WHERE reply_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, replyID.String()).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classification: %w", err)
	}

	var c models.Classification
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("failed to decode classification: %w", err)
	}
	return &c, nil
}

// SaveRoutingDecision stores a router audit record.
func SaveRoutingDecision(db *sql.DB, d *models.RoutingDecision) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO routing_decisions (id, prospect_id, reply_id, category, routed_to, reasoning, confidence,
			action_taken, response_sent, requires_human_review, meeting_scheduled, objection_handled,
			escalated_to_human, approval_id, handoff_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID.String(), d.ProspectID.String(), d.ReplyID.String(), string(d.Category), d.RoutedTo, d.Reasoning,
		d.Confidence, d.ActionTaken, boolToInt(d.ResponseSent), boolToInt(d.RequiresHumanReview),
		nullableBool(d.MeetingScheduled), nullableBool(d.ObjectionHandled), nullableBool(d.EscalatedToHuman),
		nullableUUID(d.ApprovalID), nullableUUID(d.HandoffID), d.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save routing decision: %w", err)
	}
	return nil
}

// GetRoutingDecisions returns a prospect's routing history, oldest first.
func GetRoutingDecisions(db *sql.DB, prospectID uuid.UUID) ([]models.RoutingDecision, error) {
	rows, err := db.Query(`
		SELECT id, prospect_id, reply_id, category, routed_to, reasoning, confidence, action_taken,
			response_sent, requires_human_review, meeting_scheduled, objection_handled, escalated_to_human,
			approval_id, handoff_id, created_at
		FROM routing_decisions
		WHERE prospect_id = ?
		ORDER BY created_at ASC
	`, prospectID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query routing decisions: %w", err)
	}
	defer rows.Close()

	var decisions []models.RoutingDecision
	for rows.Next() {
		var d models.RoutingDecision
		var category string
		var reasoning, approvalID, handoffID sql.NullString
		var responseSent, review int
		var meeting, objection, escalated sql.NullInt64
		if err := rows.Scan(&d.ID, &d.ProspectID, &d.ReplyID, &category, &d.RoutedTo, &reasoning,
			&d.Confidence, &d.ActionTaken, &responseSent, &review, &meeting, &objection, &escalated,
			&approvalID, &handoffID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan routing decision: %w", err)
		}
		d.Category = models.Category(category)
		d.Reasoning = reasoning.String
		d.ResponseSent = responseSent != 0
		d.RequiresHumanReview = review != 0
		d.MeetingScheduled = boolPtr(meeting)
		d.ObjectionHandled = boolPtr(objection)
		d.EscalatedToHuman = boolPtr(escalated)
		d.ApprovalID = parseNullUUID(approvalID)
		d.HandoffID = parseNullUUID(handoffID)
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
