// ABOUTME: Prospect matching for inbound mail
// ABOUTME: Resolves sender addresses to prospects by email, caching lookups for one poll
package sync

import (
	"database/sql"
	"strings"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

type ProspectMatcher struct {
	db      *sql.DB
	byEmail map[string]*models.Prospect
}

// NewProspectMatcher creates a matcher backed by the prospects table.
func NewProspectMatcher(database *sql.DB) *ProspectMatcher {
	return &ProspectMatcher{
		db:      database,
		byEmail: make(map[string]*models.Prospect),
	}
}

// FindMatch looks up the prospect for an address. Misses are cached too.
func (m *ProspectMatcher) FindMatch(email string) (*models.Prospect, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}
	if p, ok := m.byEmail[normalized]; ok {
		return p, nil
	}

	p, err := db.FindProspectByEmail(m.db, normalized)
	if err != nil {
		return nil, err
	}
	m.byEmail[normalized] = p
	return p, nil
}

// normalizeEmail converts email to lowercase for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
