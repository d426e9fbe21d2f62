// ABOUTME: Per-day send counter operations
// ABOUTME: Backs the outbound daily send limit
package db

import (
	"database/sql"
	"fmt"
	"time"
)

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// GetSendCount returns the number of sends recorded on the UTC day of t.
func GetSendCount(db *sql.DB, t time.Time) (int, error) {
	var n int
	err := db.QueryRow(`SELECT count FROM send_counters WHERE day = ?`, dayKey(t)).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get send count: %w", err)
	}
	return n, nil
}

// ReserveSend increments the day's counter if it is below limit and reports
// whether a slot was taken.
func ReserveSend(db *sql.DB, t time.Time, limit int) (bool, error) {
	res, err := db.Exec(`
		INSERT INTO send_counters (day, count) VALUES (?, 1)
		ON CONFLICT(day) DO UPDATE SET count = count + 1
		WHERE send_counters.count < ?
	`, dayKey(t), limit)
	if err != nil {
		return false, fmt.Errorf("failed to reserve send: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReleaseSend returns a reserved slot after a failed send.
func ReleaseSend(db *sql.DB, t time.Time) error {
	_, err := db.Exec(`
		UPDATE send_counters SET count = count - 1 WHERE day = ? AND count > 0
	`, dayKey(t))
	if err != nil {
		return fmt.Errorf("failed to release send: %w", err)
	}
	return nil
}
