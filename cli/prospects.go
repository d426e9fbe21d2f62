// ABOUTME: Prospect CLI commands
// ABOUTME: Human-friendly commands for adding prospects and listing the pipeline
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// AddProspectCommand adds a new prospect, creating its company if needed.
func AddProspectCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "Prospect name (required)")
	email := fs.String("email", "", "Email address")
	linkedin := fs.String("linkedin", "", "LinkedIn profile URL")
	title := fs.String("title", "", "Job title")
	company := fs.String("company", "", "Company name")
	employees := fs.Int("employees", 0, "Company headcount")
	funding := fs.Int64("funding", 0, "Company funding in USD")
	intent := fs.Int("intent", 0, "Intent score (0-100)")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *email == "" && *linkedin == "" {
		return fmt.Errorf("--email or --linkedin is required")
	}
	if *intent < 0 || *intent > 100 {
		return fmt.Errorf("--intent must be between 0 and 100")
	}

	prospect := &models.Prospect{
		Name:        *name,
		Email:       strings.TrimSpace(*email),
		LinkedInURL: *linkedin,
		Title:       *title,
		IntentScore: *intent,
	}
	if *intent > 0 {
		now := time.Now().UTC()
		prospect.LastActivityAt = &now
	}

	if *company != "" {
		existing, err := db.FindCompanyByName(database, *company)
		if err != nil {
			return fmt.Errorf("failed to lookup company: %w", err)
		}
		if existing == nil {
			existing = &models.Company{Name: *company, EmployeeCount: *employees, FundingUSD: *funding}
			if err := db.CreateCompany(database, existing); err != nil {
				return fmt.Errorf("failed to create company: %w", err)
			}
		} else if *employees > 0 || *funding > 0 {
			if *employees == 0 {
				*employees = existing.EmployeeCount
			}
			if *funding == 0 {
				*funding = existing.FundingUSD
			}
			if err := db.UpdateCompanyFirmographics(database, existing.ID, *employees, *funding); err != nil {
				return err
			}
		}
		prospect.CompanyID = &existing.ID
	}

	if err := db.CreateProspect(database, prospect); err != nil {
		return err
	}

	fmt.Printf("✓ Prospect created: %s (ID: %s)\n", prospect.Name, prospect.ID)
	if prospect.Email != "" {
		fmt.Printf("  Email: %s\n", prospect.Email)
	}
	if *company != "" {
		fmt.Printf("  Company: %s\n", *company)
	}
	return nil
}

// ListProspectsCommand lists prospects, optionally by status.
func ListProspectsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	prospects, err := db.ListProspects(database, *status, *limit)
	if err != nil {
		return err
	}
	if len(prospects) == 0 {
		fmt.Println("No prospects found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tSTATUS\tSTAGE\tINTENT\tSCORE\tTOUCHES\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t-----\t------\t-----\t-------\t--")
	for _, p := range prospects {
		email := p.Email
		if email == "" {
			email = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			p.Name, email, p.Status, p.RelationshipStage, p.IntentScore, p.QualificationScore, p.ContactCount, p.ID)
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d prospect(s)\n", len(prospects))
	return nil
}
