// ABOUTME: Gmail sync CLI commands
// ABOUTME: Handles OAuth setup and one-shot reply polling
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/config"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/sync"
)

// SyncInitCommand handles OAuth setup
func SyncInitCommand(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()

	oauthConfig, err := sync.RequireOAuthConfig()
	if err != nil {
		return err
	}

	// Start local server for OAuth callback
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := oauthConfig.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: ":" + sync.CallbackPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	authURL := oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)

	fmt.Println("Opening browser for Google OAuth...")
	fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		path := sync.TokenPath()
		if err := sync.SaveToken(path, token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		fmt.Printf("\n✓ Authenticated successfully\n")
		fmt.Printf("✓ Tokens saved to %s\n\n", path)
		fmt.Printf("Replies will now be read from Gmail. Run '%s sync replies' to poll once.\n", config.AppName)
		return nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

// SyncRepliesCommand polls Gmail once and stores new prospect replies.
func SyncRepliesCommand(database *sql.DB, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("replies", flag.ExitOnError)
	lookback := fs.Duration("lookback", 0, "How far back a full search reaches (default 7 days)")
	_ = fs.Parse(args)

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	token, err := loadGmailToken(sync.TokenPath())
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("no authentication token found. Run '%s sync init' first", config.AppName)
	}

	ctx := context.Background()
	svc, err := sync.NewGmailClient(ctx, token)
	if err != nil {
		return err
	}

	inbox := sync.NewGmailInbox(database, sync.NewGmailSource(svc), logger)
	if *lookback > 0 {
		inbox.SetLookback(*lookback)
	}

	fmt.Println("Polling Gmail for replies...")
	imported, err := inbox.Poll(ctx)
	if err != nil {
		logger.Error("reply poll failed", zap.Error(err))
		return fmt.Errorf("reply sync failed: %w", err)
	}
	fmt.Printf("✓ Imported %d new repl(ies)\n", imported)
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
