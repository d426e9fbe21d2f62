// ABOUTME: Prospect database operations
// ABOUTME: Handles prospect CRUD, discovery candidate lookup, and the scheduler/router field writers
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

const prospectColumns = `id, name, email, linkedin_url, title, company_id, intent_score, last_activity_at,
	status, last_contacted_at, contact_count, qualification_score, relationship_stage, created_at, updated_at`

func CreateProspect(db *sql.DB, p *models.Prospect) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.ProspectNew
	}
	if p.RelationshipStage == "" {
		p.RelationshipStage = models.StageUnknown
	}

	_, err := db.Exec(`
		INSERT INTO prospects (`+prospectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID.String(), p.Name, p.Email, p.LinkedInURL, p.Title, nullableUUID(p.CompanyID),
		p.IntentScore, nullableTime(p.LastActivityAt), p.Status, nullableTime(p.LastContactedAt),
		p.ContactCount, p.QualificationScore, p.RelationshipStage, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prospect: %w", err)
	}
	return nil
}

func scanProspect(row interface{ Scan(...interface{}) error }) (*models.Prospect, error) {
	p := &models.Prospect{}
	var email, linkedIn, title, companyID sql.NullString
	var lastActivity, lastContacted sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.Name,
		&email,
		&linkedIn,
		&title,
		&companyID,
		&p.IntentScore,
		&lastActivity,
		&p.Status,
		&lastContacted,
		&p.ContactCount,
		&p.QualificationScore,
		&p.RelationshipStage,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Email = email.String
	p.LinkedInURL = linkedIn.String
	p.Title = title.String
	p.CompanyID = parseNullUUID(companyID)
	p.LastActivityAt = timePtr(lastActivity)
	p.LastContactedAt = timePtr(lastContacted)
	return p, nil
}

func GetProspect(db *sql.DB, id uuid.UUID) (*models.Prospect, error) {
	p, err := scanProspect(db.QueryRow(`
		SELECT `+prospectColumns+`
		FROM prospects WHERE id = ?
	`, id.String()))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prospect: %w", err)
	}
	return p, nil
}

// FindProspectByEmail matches case-insensitively.
func FindProspectByEmail(db *sql.DB, email string) (*models.Prospect, error) {
	p, err := scanProspect(db.QueryRow(`
		SELECT `+prospectColumns+`
		FROM prospects WHERE LOWER(email) = ?
		LIMIT 1
	`, strings.ToLower(strings.TrimSpace(email))))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find prospect: %w", err)
	}
	return p, nil
}

func queryProspects(db *sql.DB, query string, args ...interface{}) ([]models.Prospect, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prospects: %w", err)
	}
	defer rows.Close()

	var prospects []models.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prospect: %w", err)
		}
		prospects = append(prospects, *p)
	}

	return prospects, rows.Err()
}

// ListProspects returns prospects, optionally filtered by status, newest first.
func ListProspects(db *sql.DB, status string, limit int) ([]models.Prospect, error) {
	if limit <= 0 {
		limit = 50
	}
	if status != "" {
		return queryProspects(db, `
			SELECT `+prospectColumns+`
			FROM prospects WHERE status = ?
			ORDER BY created_at DESC
			LIMIT ?
		`, status, limit)
	}
	return queryProspects(db, `
		SELECT `+prospectColumns+`
		FROM prospects
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
}

// FindDiscoveryCandidates returns new prospects whose intent meets minIntent and
// whose last activity is after since, highest intent first.
func FindDiscoveryCandidates(db *sql.DB, minIntent int, since time.Time, limit int) ([]models.Prospect, error) {
	all, err := queryProspects(db, `
		SELECT `+prospectColumns+`
		FROM prospects
		WHERE status = ? AND intent_score >= ? AND last_activity_at IS NOT NULL
		ORDER BY intent_score DESC, created_at ASC
	`, models.ProspectNew, minIntent)
	if err != nil {
		return nil, err
	}

	var candidates []models.Prospect
	for _, p := range all {
		if p.LastActivityAt.Before(since) {
			continue
		}
		candidates = append(candidates, p)
		if limit > 0 && len(candidates) >= limit {
			break
		}
	}
	return candidates, nil
}

// RecordOutboundTouch stamps a sent touch on the prospect.
func RecordOutboundTouch(db *sql.DB, id uuid.UUID, sentAt time.Time) error {
	_, err := db.Exec(`
		UPDATE prospects
		SET last_contacted_at = ?, contact_count = contact_count + 1, updated_at = ?
		WHERE id = ?
	`, sentAt.UTC(), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to record outbound touch: %w", err)
	}
	return nil
}

func UpdateProspectStatus(db *sql.DB, id uuid.UUID, status string) error {
	_, err := db.Exec(`
		UPDATE prospects SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update prospect status: %w", err)
	}
	return nil
}

func UpdateQualificationScore(db *sql.DB, id uuid.UUID, score int) error {
	_, err := db.Exec(`
		UPDATE prospects SET qualification_score = ?, updated_at = ? WHERE id = ?
	`, score, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update qualification score: %w", err)
	}
	return nil
}

// UpdateRelationshipStage is written by the response router only.
func UpdateRelationshipStage(db *sql.DB, id uuid.UUID, stage string) error {
	_, err := db.Exec(`
		UPDATE prospects SET relationship_stage = ?, updated_at = ? WHERE id = ?
	`, stage, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update relationship stage: %w", err)
	}
	return nil
}

// UpdateProspectActivity records an intent signal observed by an external feed.
func UpdateProspectActivity(db *sql.DB, id uuid.UUID, intentScore int, at time.Time) error {
	_, err := db.Exec(`
		UPDATE prospects SET intent_score = ?, last_activity_at = ?, updated_at = ? WHERE id = ?
	`, intentScore, at.UTC(), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update prospect activity: %w", err)
	}
	return nil
}

// CountProspectsByStatus returns the number of prospects in each status.
func CountProspectsByStatus(db *sql.DB) (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM prospects GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count prospects: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan prospect count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
