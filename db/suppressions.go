// ABOUTME: Suppression list database operations
// ABOUTME: Addresses that must never be messaged again
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AddSuppression suppresses an address. Adding it twice keeps the first reason.
func AddSuppression(db *sql.DB, address, reason string) error {
	_, err := db.Exec(`
		INSERT INTO suppressions (address, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`, normalizeAddress(address), reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add suppression: %w", err)
	}
	return nil
}

func IsSuppressed(db *sql.DB, address string) (bool, error) {
	if strings.TrimSpace(address) == "" {
		return false, nil
	}
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM suppressions WHERE address = ?`, normalizeAddress(address)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check suppression: %w", err)
	}
	return count > 0, nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
