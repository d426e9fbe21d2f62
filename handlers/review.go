// ABOUTME: Human review MCP tool handlers
// ABOUTME: Implements the draft approval queue and handoff inbox tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

type ReviewHandlers struct {
	db *sql.DB
}

func NewReviewHandlers(database *sql.DB) *ReviewHandlers {
	return &ReviewHandlers{db: database}
}

type ApprovalOutput struct {
	ID         string  `json:"id"`
	ProspectID string  `json:"prospect_id"`
	ReplyID    string  `json:"reply_id,omitempty"`
	Channel    string  `json:"channel"`
	Subject    string  `json:"subject,omitempty"`
	Draft      string  `json:"draft"`
	Reasoning  string  `json:"reasoning,omitempty"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
}

type ListApprovalsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Approval status: pending (default), approved, rejected, or sent"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type ListApprovalsOutput struct {
	Approvals []ApprovalOutput `json:"approvals"`
}

func (h *ReviewHandlers) ListApprovals(_ context.Context, request *mcp.CallToolRequest, input ListApprovalsInput) (*mcp.CallToolResult, ListApprovalsOutput, error) {
	status := input.Status
	if status == "" {
		status = models.ApprovalPending
	}

	requests, err := db.ListApprovalRequests(h.db, status, input.Limit)
	if err != nil {
		return nil, ListApprovalsOutput{}, err
	}

	result := make([]ApprovalOutput, len(requests))
	for i := range requests {
		result[i] = approvalToOutput(&requests[i])
	}
	return nil, ListApprovalsOutput{Approvals: result}, nil
}

type ApproveDraftInput struct {
	ID          string `json:"id" jsonschema:"Approval request ID (required)"`
	EditedDraft string `json:"edited_draft,omitempty" jsonschema:"Replacement text to send instead of the generated draft"`
}

func (h *ReviewHandlers) ApproveDraft(_ context.Context, request *mcp.CallToolRequest, input ApproveDraftInput) (*mcp.CallToolResult, ApprovalOutput, error) {
	return h.review(input.ID, true, input.EditedDraft)
}

type RejectDraftInput struct {
	ID string `json:"id" jsonschema:"Approval request ID (required)"`
}

func (h *ReviewHandlers) RejectDraft(_ context.Context, request *mcp.CallToolRequest, input RejectDraftInput) (*mcp.CallToolResult, ApprovalOutput, error) {
	return h.review(input.ID, false, "")
}

func (h *ReviewHandlers) review(idStr string, approve bool, editedDraft string) (*mcp.CallToolResult, ApprovalOutput, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, ApprovalOutput{}, fmt.Errorf("invalid approval ID: %w", err)
	}

	if err := db.ReviewApprovalRequest(h.db, id, approve, editedDraft); err != nil {
		return nil, ApprovalOutput{}, err
	}

	req, err := db.GetApprovalRequest(h.db, id)
	if err != nil {
		return nil, ApprovalOutput{}, fmt.Errorf("failed to fetch approval request: %w", err)
	}
	if req == nil {
		return nil, ApprovalOutput{}, fmt.Errorf("approval request not found: %s", id)
	}
	return nil, approvalToOutput(req), nil
}

type HandoffOutput struct {
	ID         string `json:"id"`
	ProspectID string `json:"prospect_id"`
	ReplyID    string `json:"reply_id,omitempty"`
	Reason     string `json:"reason"`
	Summary    string `json:"summary"`
	Excerpt    string `json:"excerpt,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	ResolvedAt string `json:"resolved_at,omitempty"`
}

type ListHandoffsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Handoff status: open (default) or resolved"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type ListHandoffsOutput struct {
	Handoffs []HandoffOutput `json:"handoffs"`
}

func (h *ReviewHandlers) ListHandoffs(_ context.Context, request *mcp.CallToolRequest, input ListHandoffsInput) (*mcp.CallToolResult, ListHandoffsOutput, error) {
	status := input.Status
	if status == "" {
		status = models.HandoffOpen
	}

	handoffs, err := db.ListHandoffs(h.db, status, input.Limit)
	if err != nil {
		return nil, ListHandoffsOutput{}, err
	}

	result := make([]HandoffOutput, len(handoffs))
	for i := range handoffs {
		result[i] = handoffToOutput(&handoffs[i])
	}
	return nil, ListHandoffsOutput{Handoffs: result}, nil
}

type ResolveHandoffInput struct {
	ID string `json:"id" jsonschema:"Handoff ID (required)"`
}

type ResolveHandoffOutput struct {
	ID       string `json:"id"`
	Resolved bool   `json:"resolved"`
}

func (h *ReviewHandlers) ResolveHandoff(_ context.Context, request *mcp.CallToolRequest, input ResolveHandoffInput) (*mcp.CallToolResult, ResolveHandoffOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, ResolveHandoffOutput{}, fmt.Errorf("invalid handoff ID: %w", err)
	}
	if err := db.ResolveHandoff(h.db, id); err != nil {
		return nil, ResolveHandoffOutput{}, err
	}
	return nil, ResolveHandoffOutput{ID: id.String(), Resolved: true}, nil
}

func approvalToOutput(a *models.ApprovalRequest) ApprovalOutput {
	out := ApprovalOutput{
		ID:         a.ID.String(),
		ProspectID: a.ProspectID.String(),
		Channel:    a.Channel,
		Subject:    a.Subject,
		Draft:      a.Draft,
		Reasoning:  a.Reasoning,
		Confidence: a.Confidence,
		Status:     a.Status,
		CreatedAt:  formatTime(a.CreatedAt),
	}
	if a.ReplyID != nil {
		out.ReplyID = a.ReplyID.String()
	}
	return out
}

func handoffToOutput(h *models.Handoff) HandoffOutput {
	out := HandoffOutput{
		ID:         h.ID.String(),
		ProspectID: h.ProspectID.String(),
		Reason:     h.Reason,
		Summary:    h.Summary,
		Excerpt:    h.Excerpt,
		Status:     h.Status,
		CreatedAt:  formatTime(h.CreatedAt),
	}
	if h.ReplyID != nil {
		out.ReplyID = h.ReplyID.String()
	}
	if h.ResolvedAt != nil {
		out.ResolvedAt = formatTime(*h.ResolvedAt)
	}
	return out
}
