// ABOUTME: Reply classification CLI command
// ABOUTME: Classifies a reply from flags or stdin and prints the route it would take
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/classifier"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/config"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/router"
)

// ClassifyCommand classifies reply text without storing it. The body is read
// from --body, or stdin when --body is "-" or absent.
func ClassifyCommand(cfg *config.Config, stdin io.Reader, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	subject := fs.String("subject", "", "Reply subject")
	body := fs.String("body", "", "Reply body (- for stdin)")
	rulesOnly := fs.Bool("rules-only", false, "Skip the AI stage")
	_ = fs.Parse(args)

	text := *body
	if text == "" || text == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("reply body is empty")
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	cls := NewStandaloneClassifier(ctx, cfg, logger, *rulesOnly).Classify(ctx, classifier.ReplyInput{
		Subject:    *subject,
		Body:       text,
		ReceivedAt: time.Now().UTC(),
	})
	return printJSON(classifyReport{
		Classification: cls,
		RoutedTo:       router.Destination(cls),
		NextStage:      router.StageFor(cls.Category, models.StageEngaged),
	})
}

type classifyReport struct {
	Classification models.Classification `json:"classification"`
	RoutedTo       string                `json:"routed_to"`
	NextStage      string                `json:"next_stage"`
}

// StdinOrEmpty avoids blocking on a terminal when nothing is piped in.
func StdinOrEmpty() io.Reader {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return strings.NewReader("")
	}
	return os.Stdin
}
