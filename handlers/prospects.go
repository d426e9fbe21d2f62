// ABOUTME: Prospect MCP tool handlers
// ABOUTME: Implements add_prospect, list_prospects, and get_prospect tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

type ProspectHandlers struct {
	db    *sql.DB
	tasks *db.TaskRepository
}

func NewProspectHandlers(database *sql.DB) *ProspectHandlers {
	return &ProspectHandlers{db: database, tasks: db.NewTaskRepository(database)}
}

type AddProspectInput struct {
	Name          string `json:"name" jsonschema:"Prospect full name (required)"`
	Email         string `json:"email,omitempty" jsonschema:"Email address"`
	LinkedInURL   string `json:"linkedin_url,omitempty" jsonschema:"LinkedIn profile URL"`
	Title         string `json:"title,omitempty" jsonschema:"Job title, used for seniority scoring"`
	CompanyName   string `json:"company_name,omitempty" jsonschema:"Company name (looked up or created)"`
	Domain        string `json:"domain,omitempty" jsonschema:"Company domain (e.g., acme.com)"`
	Industry      string `json:"industry,omitempty" jsonschema:"Company industry"`
	EmployeeCount int    `json:"employee_count,omitempty" jsonschema:"Company headcount"`
	FundingUSD    int64  `json:"funding_usd,omitempty" jsonschema:"Total company funding in USD"`
	IntentScore   int    `json:"intent_score,omitempty" jsonschema:"Buying intent signal from 0 to 100"`
}

type ProspectOutput struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email,omitempty"`
	LinkedInURL        string `json:"linkedin_url,omitempty"`
	Title              string `json:"title,omitempty"`
	CompanyID          string `json:"company_id,omitempty"`
	IntentScore        int    `json:"intent_score"`
	Status             string `json:"status"`
	RelationshipStage  string `json:"relationship_stage"`
	QualificationScore int    `json:"qualification_score"`
	ContactCount       int    `json:"contact_count"`
	LastContactedAt    string `json:"last_contacted_at,omitempty"`
	CreatedAt          string `json:"created_at"`
}

type CompanyOutput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Domain        string `json:"domain,omitempty"`
	Industry      string `json:"industry,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
	FundingUSD    int64  `json:"funding_usd,omitempty"`
}

type AddProspectOutput struct {
	Prospect ProspectOutput `json:"prospect"`
	Company  *CompanyOutput `json:"company,omitempty"`
}

func (h *ProspectHandlers) AddProspect(_ context.Context, request *mcp.CallToolRequest, input AddProspectInput) (*mcp.CallToolResult, AddProspectOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, AddProspectOutput{}, fmt.Errorf("name is required")
	}
	if input.Email == "" && input.LinkedInURL == "" {
		return nil, AddProspectOutput{}, fmt.Errorf("email or linkedin_url is required")
	}
	if input.IntentScore < 0 || input.IntentScore > 100 {
		return nil, AddProspectOutput{}, fmt.Errorf("intent_score must be between 0 and 100")
	}

	prospect := &models.Prospect{
		Name:        input.Name,
		Email:       strings.TrimSpace(input.Email),
		LinkedInURL: input.LinkedInURL,
		Title:       input.Title,
		IntentScore: input.IntentScore,
	}
	if input.IntentScore > 0 {
		now := time.Now().UTC()
		prospect.LastActivityAt = &now
	}

	var company *models.Company
	if input.CompanyName != "" {
		var err error
		company, err = h.findOrCreateCompany(input)
		if err != nil {
			return nil, AddProspectOutput{}, err
		}
		prospect.CompanyID = &company.ID
	}

	if err := db.CreateProspect(h.db, prospect); err != nil {
		return nil, AddProspectOutput{}, err
	}
	out := AddProspectOutput{Prospect: prospectToOutput(prospect)}
	if company != nil {
		c := companyToOutput(company)
		out.Company = &c
	}
	return nil, out, nil
}

func (h *ProspectHandlers) findOrCreateCompany(input AddProspectInput) (*models.Company, error) {
	company, err := db.FindCompanyByName(h.db, input.CompanyName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up company: %w", err)
	}
	if company == nil {
		company = &models.Company{
			Name:          input.CompanyName,
			Domain:        input.Domain,
			Industry:      input.Industry,
			EmployeeCount: input.EmployeeCount,
			FundingUSD:    input.FundingUSD,
		}
		if err := db.CreateCompany(h.db, company); err != nil {
			return nil, fmt.Errorf("failed to create company: %w", err)
		}
		return company, nil
	}

	if input.EmployeeCount > 0 || input.FundingUSD > 0 {
		employees, funding := company.EmployeeCount, company.FundingUSD
		if input.EmployeeCount > 0 {
			employees = input.EmployeeCount
		}
		if input.FundingUSD > 0 {
			funding = input.FundingUSD
		}
		if err := db.UpdateCompanyFirmographics(h.db, company.ID, employees, funding); err != nil {
			return nil, err
		}
		company.EmployeeCount = employees
		company.FundingUSD = funding
	}
	return company, nil
}

type ListProspectsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status (new, engaged, replied, nurture, handed_off, ...)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type ListProspectsOutput struct {
	Prospects []ProspectOutput `json:"prospects"`
}

func (h *ProspectHandlers) ListProspects(_ context.Context, request *mcp.CallToolRequest, input ListProspectsInput) (*mcp.CallToolResult, ListProspectsOutput, error) {
	prospects, err := db.ListProspects(h.db, input.Status, input.Limit)
	if err != nil {
		return nil, ListProspectsOutput{}, fmt.Errorf("failed to list prospects: %w", err)
	}

	result := make([]ProspectOutput, len(prospects))
	for i := range prospects {
		result[i] = prospectToOutput(&prospects[i])
	}
	return nil, ListProspectsOutput{Prospects: result}, nil
}

type GetProspectInput struct {
	ID string `json:"id" jsonschema:"Prospect ID (required)"`
}

type TouchOutput struct {
	TouchNumber int    `json:"touch_number"`
	Channel     string `json:"channel"`
	Subject     string `json:"subject,omitempty"`
	SentAt      string `json:"sent_at"`
}

type ReplyOutput struct {
	ID         string `json:"id"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body"`
	Status     string `json:"status"`
	Category   string `json:"category,omitempty"`
	ReceivedAt string `json:"received_at"`
}

type RoutingOutput struct {
	ReplyID             string  `json:"reply_id"`
	Category            string  `json:"category"`
	RoutedTo            string  `json:"routed_to"`
	ActionTaken         string  `json:"action_taken"`
	Reasoning           string  `json:"reasoning"`
	Confidence          float64 `json:"confidence"`
	ResponseSent        bool    `json:"response_sent"`
	RequiresHumanReview bool    `json:"requires_human_review"`
	CreatedAt           string  `json:"created_at"`
}

type ProspectDetailOutput struct {
	Prospect    ProspectOutput  `json:"prospect"`
	Company     *CompanyOutput  `json:"company,omitempty"`
	Touches     []TouchOutput   `json:"touches"`
	Replies     []ReplyOutput   `json:"replies"`
	Routing     []RoutingOutput `json:"routing"`
	Tasks       []TaskOutput    `json:"tasks"`
	OpenHandoff *HandoffOutput  `json:"open_handoff,omitempty"`
}

func (h *ProspectHandlers) GetProspect(ctx context.Context, request *mcp.CallToolRequest, input GetProspectInput) (*mcp.CallToolResult, ProspectDetailOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, ProspectDetailOutput{}, fmt.Errorf("invalid prospect ID: %w", err)
	}
	detail, err := loadProspectDetail(ctx, h.db, h.tasks, id)
	if err != nil {
		return nil, ProspectDetailOutput{}, err
	}
	return nil, detailToOutput(detail), nil
}

// ProspectDetail is a prospect with its engagement history.
type ProspectDetail struct {
	Prospect    models.Prospect          `json:"prospect"`
	Company     *models.Company          `json:"company,omitempty"`
	Touches     []models.Touch           `json:"touches"`
	Replies     []models.Reply           `json:"replies"`
	Routing     []models.RoutingDecision `json:"routing"`
	Tasks       []*models.Task           `json:"tasks"`
	OpenHandoff *models.Handoff          `json:"open_handoff,omitempty"`
}

func loadProspectDetail(ctx context.Context, database *sql.DB, tasks *db.TaskRepository, id uuid.UUID) (*ProspectDetail, error) {
	prospect, err := db.GetProspect(database, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prospect: %w", err)
	}
	if prospect == nil {
		return nil, fmt.Errorf("prospect not found: %s", id)
	}

	detail := &ProspectDetail{Prospect: *prospect}
	if prospect.CompanyID != nil {
		if detail.Company, err = db.GetCompany(database, *prospect.CompanyID); err != nil {
			return nil, fmt.Errorf("failed to fetch company: %w", err)
		}
	}
	if detail.Touches, err = db.GetTouchesForProspect(database, id); err != nil {
		return nil, err
	}
	if detail.Replies, err = db.GetRepliesForProspect(database, id); err != nil {
		return nil, err
	}
	if detail.Routing, err = db.GetRoutingDecisions(database, id); err != nil {
		return nil, err
	}
	if detail.Tasks, err = tasks.ListForProspect(ctx, id); err != nil {
		return nil, err
	}
	if detail.OpenHandoff, err = db.GetOpenHandoff(database, id); err != nil {
		return nil, err
	}
	return detail, nil
}

func detailToOutput(d *ProspectDetail) ProspectDetailOutput {
	out := ProspectDetailOutput{
		Prospect: prospectToOutput(&d.Prospect),
		Touches:  make([]TouchOutput, len(d.Touches)),
		Replies:  make([]ReplyOutput, len(d.Replies)),
		Routing:  make([]RoutingOutput, len(d.Routing)),
		Tasks:    make([]TaskOutput, len(d.Tasks)),
	}
	if d.Company != nil {
		c := companyToOutput(d.Company)
		out.Company = &c
	}
	for i, t := range d.Touches {
		out.Touches[i] = TouchOutput{
			TouchNumber: t.TouchNumber,
			Channel:     t.Channel,
			Subject:     t.Subject,
			SentAt:      formatTime(t.SentAt),
		}
	}
	for i, r := range d.Replies {
		out.Replies[i] = ReplyOutput{
			ID:         r.ID.String(),
			Subject:    r.Subject,
			Body:       r.Body,
			Status:     r.Status,
			Category:   r.Category,
			ReceivedAt: formatTime(r.ReceivedAt),
		}
	}
	for i, rd := range d.Routing {
		out.Routing[i] = RoutingOutput{
			ReplyID:             rd.ReplyID.String(),
			Category:            string(rd.Category),
			RoutedTo:            rd.RoutedTo,
			ActionTaken:         rd.ActionTaken,
			Reasoning:           rd.Reasoning,
			Confidence:          rd.Confidence,
			ResponseSent:        rd.ResponseSent,
			RequiresHumanReview: rd.RequiresHumanReview,
			CreatedAt:           formatTime(rd.CreatedAt),
		}
	}
	for i, t := range d.Tasks {
		out.Tasks[i] = taskToOutput(t)
	}
	if d.OpenHandoff != nil {
		h := handoffToOutput(d.OpenHandoff)
		out.OpenHandoff = &h
	}
	return out
}

func prospectToOutput(p *models.Prospect) ProspectOutput {
	out := ProspectOutput{
		ID:                 p.ID.String(),
		Name:               p.Name,
		Email:              p.Email,
		LinkedInURL:        p.LinkedInURL,
		Title:              p.Title,
		IntentScore:        p.IntentScore,
		Status:             p.Status,
		RelationshipStage:  p.RelationshipStage,
		QualificationScore: p.QualificationScore,
		ContactCount:       p.ContactCount,
		CreatedAt:          formatTime(p.CreatedAt),
	}
	if p.CompanyID != nil {
		out.CompanyID = p.CompanyID.String()
	}
	if p.LastContactedAt != nil {
		out.LastContactedAt = formatTime(*p.LastContactedAt)
	}
	return out
}

func companyToOutput(c *models.Company) CompanyOutput {
	return CompanyOutput{
		ID:            c.ID.String(),
		Name:          c.Name,
		Domain:        c.Domain,
		Industry:      c.Industry,
		EmployeeCount: c.EmployeeCount,
		FundingUSD:    c.FundingUSD,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
