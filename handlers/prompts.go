// ABOUTME: MCP prompt handlers for reusable outreach review templates
// ABOUTME: Provides prompts for reviewing drafts, briefing account executives, and auditing the pipeline
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

type PromptHandlers struct {
	db    *sql.DB
	tasks *db.TaskRepository
}

func NewPromptHandlers(database *sql.DB) *PromptHandlers {
	return &PromptHandlers{db: database, tasks: db.NewTaskRepository(database)}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "review-draft":
		return h.getReviewDraftPrompt(arguments)
	case "handoff-brief":
		return h.getHandoffBriefPrompt(ctx, arguments)
	case "pipeline-review":
		return h.getPipelineReviewPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getReviewDraftPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	id, err := parseIDArg(args, "approval_id")
	if err != nil {
		return nil, err
	}

	req, err := db.GetApprovalRequest(h.db, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("approval request not found: %s", id)
	}
	prospect, err := db.GetProspect(h.db, req.ProspectID)
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Please review this outreach draft before it is sent:\n\n")
	if prospect != nil {
		writeProspect(&promptText, prospect)
	}
	if req.ReplyID != nil {
		if reply, err := db.GetReply(h.db, *req.ReplyID); err == nil && reply != nil {
			fmt.Fprintf(&promptText, "\nTheir reply:\n%s\n", reply.Body)
			if cls, err := db.GetLatestClassification(h.db, reply.ID); err == nil && cls != nil {
				fmt.Fprintf(&promptText, "Classified as: %s (sentiment %s, confidence %.2f)\n",
					cls.Category, cls.Sentiment.Label, cls.Confidence)
			}
		}
	}
	fmt.Fprintf(&promptText, "\nDraft (%s, confidence %.2f):\n", req.Channel, req.Confidence)
	if req.Subject != "" {
		fmt.Fprintf(&promptText, "Subject: %s\n", req.Subject)
	}
	promptText.WriteString(req.Draft)
	promptText.WriteString("\n")
	if req.Reasoning != "" {
		fmt.Fprintf(&promptText, "\nGenerator reasoning: %s\n", req.Reasoning)
	}

	promptText.WriteString("\nPlease assess:")
	promptText.WriteString("\n1. Whether the draft answers what the prospect actually said")
	promptText.WriteString("\n2. Tone, length, and any claims that should not be made")
	promptText.WriteString("\n3. A recommendation to approve, edit (with suggested text), or reject")

	return singleMessage(fmt.Sprintf("Draft review for approval %s", id), promptText.String()), nil
}

func (h *PromptHandlers) getHandoffBriefPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, err := parseIDArg(args, "handoff_id")
	if err != nil {
		return nil, err
	}

	handoffs, err := db.ListHandoffs(h.db, models.HandoffOpen, 1000)
	if err != nil {
		return nil, err
	}
	var handoff *models.Handoff
	for i := range handoffs {
		if handoffs[i].ID == id {
			handoff = &handoffs[i]
			break
		}
	}
	if handoff == nil {
		return nil, fmt.Errorf("open handoff not found: %s", id)
	}

	detail, err := loadProspectDetail(ctx, h.db, h.tasks, handoff.ProspectID)
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Prepare a brief for the account executive taking over this prospect:\n\n")
	writeProspect(&promptText, &detail.Prospect)
	if detail.Company != nil {
		fmt.Fprintf(&promptText, "Company: %s", detail.Company.Name)
		if detail.Company.EmployeeCount > 0 {
			fmt.Fprintf(&promptText, " (%d employees)", detail.Company.EmployeeCount)
		}
		promptText.WriteString("\n")
	}
	fmt.Fprintf(&promptText, "\nHandoff reason: %s\n", handoff.Reason)
	fmt.Fprintf(&promptText, "Summary: %s\n", handoff.Summary)
	if handoff.Excerpt != "" {
		fmt.Fprintf(&promptText, "\nConversation excerpt:\n%s\n", handoff.Excerpt)
	}
	if len(detail.Touches) > 0 {
		fmt.Fprintf(&promptText, "\nOutbound touches: %d\n", len(detail.Touches))
		for _, t := range detail.Touches {
			fmt.Fprintf(&promptText, "- #%d via %s on %s\n", t.TouchNumber, t.Channel, t.SentAt.Format("2006-01-02"))
		}
	}
	if len(detail.Routing) > 0 {
		promptText.WriteString("\nReply history:\n")
		for _, r := range detail.Routing {
			fmt.Fprintf(&promptText, "- %s: %s, routed to %s\n", r.CreatedAt.Format("2006-01-02"), r.Category, r.RoutedTo)
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Who this person is and why they were handed off now")
	promptText.WriteString("\n2. Open questions or objections the executive should address")
	promptText.WriteString("\n3. A suggested opening line for the first human touch")

	return singleMessage(fmt.Sprintf("Handoff brief for %s", detail.Prospect.Name), promptText.String()), nil
}

func (h *PromptHandlers) getPipelineReviewPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	stats, err := pipelineStats(ctx, h.db, h.tasks)
	if err != nil {
		return nil, err
	}
	failed, err := h.tasks.ListByStatus(ctx, models.TaskFailed, 20)
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Please review the state of the outreach pipeline:\n\n")
	promptText.WriteString("Prospects by status:\n")
	writeCounts(&promptText, stats.Prospects)
	promptText.WriteString("\nTasks by status:\n")
	writeCounts(&promptText, stats.Tasks)

	if len(failed) > 0 {
		promptText.WriteString("\nRecent failed tasks:\n")
		for _, t := range failed {
			fmt.Fprintf(&promptText, "- %s %s (attempts %d): %s\n", t.Type, t.ID, t.Attempts, t.Error)
		}
	}

	promptText.WriteString("\nPlease identify:")
	promptText.WriteString("\n1. Where prospects are stalling")
	promptText.WriteString("\n2. Failed tasks worth retrying and ones that point to a configuration problem")
	promptText.WriteString("\n3. Any change to cadence or thresholds the numbers suggest")

	return singleMessage("Pipeline review", promptText.String()), nil
}

func parseIDArg(args map[string]string, key string) (uuid.UUID, error) {
	raw, ok := args[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}

func writeProspect(b *strings.Builder, p *models.Prospect) {
	fmt.Fprintf(b, "Prospect: %s\n", p.Name)
	if p.Title != "" {
		fmt.Fprintf(b, "Title: %s\n", p.Title)
	}
	if p.Email != "" {
		fmt.Fprintf(b, "Email: %s\n", p.Email)
	}
	fmt.Fprintf(b, "Status: %s, stage: %s, qualification score: %d\n", p.Status, p.RelationshipStage, p.QualificationScore)
}

func writeCounts(b *strings.Builder, counts map[string]int) {
	if len(counts) == 0 {
		b.WriteString("- none\n")
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %d\n", k, counts[k])
	}
}

func singleMessage(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
