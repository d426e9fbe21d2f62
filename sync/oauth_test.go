package sync

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
)

func TestOAuthConfigCreation(t *testing.T) {
	config := NewOAuthConfig()

	if config == nil {
		t.Fatal("expected config, got nil")
	}

	requiredScopes := map[string]bool{
		gmail.GmailReadonlyScope: false,
		gmail.GmailSendScope:     false,
	}
	for _, scope := range config.Scopes {
		if _, ok := requiredScopes[scope]; ok {
			requiredScopes[scope] = true
		}
	}
	for scope, found := range requiredScopes {
		if !found {
			t.Errorf("missing required scope: %s", scope)
		}
	}

	if !strings.Contains(config.RedirectURL, CallbackPort) {
		t.Errorf("redirect URL %s does not use callback port %s", config.RedirectURL, CallbackPort)
	}
}

func TestRequireOAuthConfigNeedsCredentials(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	if _, err := RequireOAuthConfig(); err == nil {
		t.Error("expected error without credentials")
	}

	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	if _, err := RequireOAuthConfig(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTokenPathXDG(t *testing.T) {
	path := TokenPath()

	expectedBase := filepath.Join(xdg.DataHome, "outreach")
	if !strings.HasPrefix(path, expectedBase) {
		t.Errorf("expected path under %s, got %s", expectedBase, path)
	}

	if filepath.Base(path) != "google-credentials.json" {
		t.Errorf("expected filename google-credentials.json, got %s", filepath.Base(path))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	if err := SaveToken(path, token); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	loaded, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
		t.Errorf("unexpected token: %+v", loaded)
	}
	if !loaded.Expiry.Equal(token.Expiry) {
		t.Errorf("expiry = %v, want %v", loaded.Expiry, token.Expiry)
	}

	if _, err := LoadToken(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing token file")
	}
}
