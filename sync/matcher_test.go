package sync

import (
	"path/filepath"
	"testing"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

func TestMatchProspectByEmail(t *testing.T) {
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "match.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	alice := &models.Prospect{Name: "Alice", Email: "alice@example.com"}
	if err := db.CreateProspect(database, alice); err != nil {
		t.Fatalf("create prospect: %v", err)
	}

	matcher := NewProspectMatcher(database)

	match, err := matcher.FindMatch("  Alice@Example.com ")
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	if match == nil || match.ID != alice.ID {
		t.Fatalf("expected alice, got %+v", match)
	}

	match, err = matcher.FindMatch("charlie@example.com")
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match for charlie@example.com, got %+v", match)
	}

	// misses are cached for the matcher's lifetime
	charlie := &models.Prospect{Name: "Charlie", Email: "charlie@example.com"}
	if err := db.CreateProspect(database, charlie); err != nil {
		t.Fatalf("create prospect: %v", err)
	}
	if match, _ := matcher.FindMatch("charlie@example.com"); match != nil {
		t.Error("expected cached miss")
	}
	if match, _ := NewProspectMatcher(database).FindMatch("charlie@example.com"); match == nil {
		t.Error("expected a fresh matcher to find charlie")
	}

	if match, _ := matcher.FindMatch(""); match != nil {
		t.Error("expected no match for empty address")
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Alice@Example.com", "alice@example.com"},
		{"alice.smith@example.com", "alice.smith@example.com"},
		{" ALICE@EXAMPLE.COM ", "alice@example.com"},
	}

	for _, tt := range tests {
		result := normalizeEmail(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeEmail(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
