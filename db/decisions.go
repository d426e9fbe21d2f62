// ABOUTME: Decision audit log persistence
// ABOUTME: Stores every decision engine result with the context it was made from
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// DecisionLog writes and reads the decisions table.
type DecisionLog struct {
	db *sql.DB
}

// NewDecisionLog creates a decision log over db.
func NewDecisionLog(db *sql.DB) *DecisionLog {
	return &DecisionLog{db: db}
}

// Record stores one decision.
func (l *DecisionLog) Record(ctx context.Context, rec models.DecisionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	alternatives, err := json.Marshal(rec.Decision.Alternatives)
	if err != nil {
		return fmt.Errorf("failed to encode alternatives: %w", err)
	}
	metadata, err := json.Marshal(rec.Decision.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	var prospectID interface{}
	if rec.ProspectID != "" {
		prospectID = rec.ProspectID
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO decisions (id, type, prospect_id, context, action, reasoning, confidence,
			alternatives, metadata, fallback, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Type), prospectID, rec.Context, rec.Decision.Action, rec.Decision.Reasoning,
		rec.Decision.Confidence, string(alternatives), string(metadata),
		boolToInt(rec.Decision.IsFallback()), rec.LatencyMS, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// List returns the most recent decisions, optionally of one type.
func (l *DecisionLog) List(ctx context.Context, decisionType models.DecisionType, limit int) ([]models.DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, type, prospect_id, context, action, reasoning, confidence, alternatives, metadata, latency_ms, created_at
		FROM decisions`
	args := []interface{}{}
	if decisionType != "" {
		query += ` WHERE type = ?`
		args = append(args, string(decisionType))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.DecisionRecord
	for rows.Next() {
		var rec models.DecisionRecord
		var decisionType string
		var prospectID, reasoning, alternatives, metadata sql.NullString
		if err := rows.Scan(&rec.ID, &decisionType, &prospectID, &rec.Context, &rec.Decision.Action,
			&reasoning, &rec.Decision.Confidence, &alternatives, &metadata, &rec.LatencyMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		rec.Type = models.DecisionType(decisionType)
		rec.ProspectID = prospectID.String
		rec.Decision.Reasoning = reasoning.String
		if alternatives.Valid && alternatives.String != "null" {
			_ = json.Unmarshal([]byte(alternatives.String), &rec.Decision.Alternatives)
		}
		if metadata.Valid && metadata.String != "null" {
			_ = json.Unmarshal([]byte(metadata.String), &rec.Decision.Metadata)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountFallbacks returns how many recorded decisions were fallbacks.
func (l *DecisionLog) CountFallbacks(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions WHERE fallback = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count fallback decisions: %w", err)
	}
	return n, nil
}
