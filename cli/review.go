// ABOUTME: Review CLI commands
// ABOUTME: Approve or reject drafted responses and work the handoff inbox
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// ListApprovalsCommand lists drafts awaiting review.
func ListApprovalsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", models.ApprovalPending, "Approval status")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	requests, err := db.ListApprovalRequests(database, *status, *limit)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		fmt.Printf("No %s approvals\n", *status)
		return nil
	}

	for _, r := range requests {
		fmt.Printf("%s  [%s, confidence %.2f]  prospect %s\n", r.ID, r.Channel, r.Confidence, r.ProspectID)
		if r.Subject != "" {
			fmt.Printf("  Subject: %s\n", r.Subject)
		}
		fmt.Printf("  %s\n", strings.ReplaceAll(r.Draft, "\n", "\n  "))
		if r.Reasoning != "" {
			fmt.Printf("  Reasoning: %s\n", r.Reasoning)
		}
		fmt.Println()
	}
	return nil
}

// ApproveCommand approves a draft, optionally replacing its text.
func ApproveCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	draft := fs.String("draft", "", "Replacement text to send")
	_ = fs.Parse(args)

	id, err := parseIDArg(fs.Args(), "approval")
	if err != nil {
		return err
	}
	if err := db.ReviewApprovalRequest(database, id, true, *draft); err != nil {
		return err
	}
	fmt.Printf("✓ Approved %s; it will be sent on the next agent cycle\n", id)
	return nil
}

// RejectCommand rejects a draft.
func RejectCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("reject", flag.ExitOnError)
	_ = fs.Parse(args)

	id, err := parseIDArg(fs.Args(), "approval")
	if err != nil {
		return err
	}
	if err := db.ReviewApprovalRequest(database, id, false, ""); err != nil {
		return err
	}
	fmt.Printf("✓ Rejected %s\n", id)
	return nil
}

// ListHandoffsCommand lists prospects waiting on a person.
func ListHandoffsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", models.HandoffOpen, "Handoff status")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	handoffs, err := db.ListHandoffs(database, *status, *limit)
	if err != nil {
		return err
	}
	if len(handoffs) == 0 {
		fmt.Printf("No %s handoffs\n", *status)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROSPECT\tREASON\tSUMMARY\tCREATED\tID")
	_, _ = fmt.Fprintln(w, "--------\t------\t-------\t-------\t--")
	for _, h := range handoffs {
		name := h.ProspectID.String()
		if p, err := db.GetProspect(database, h.ProspectID); err == nil && p != nil {
			name = p.Name
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			name, h.Reason, truncate(h.Summary, 60), h.CreatedAt.Format("2006-01-02"), h.ID)
	}
	return w.Flush()
}

// ResolveHandoffCommand closes a handoff.
func ResolveHandoffCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	_ = fs.Parse(args)

	id, err := parseIDArg(fs.Args(), "handoff")
	if err != nil {
		return err
	}
	if err := db.ResolveHandoff(database, id); err != nil {
		return err
	}
	fmt.Printf("✓ Resolved %s\n", id)
	return nil
}

func parseIDArg(args []string, what string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, fmt.Errorf("%s ID is required", what)
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return id, nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
