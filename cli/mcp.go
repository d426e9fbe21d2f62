// ABOUTME: MCP server subcommand
// ABOUTME: Exposes the prospect pipeline, review queues, and task queue to MCP clients over stdio
package cli

import (
	"context"
	"database/sql"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/config"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/handlers"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// NewMCPServer registers every tool, resource, and prompt against database.
// cls classifies replies for the classify_reply tool.
func NewMCPServer(database *sql.DB, cls handlers.ReplyClassifier) *mcp.Server {
	prospectHandlers := handlers.NewProspectHandlers(database)
	reviewHandlers := handlers.NewReviewHandlers(database)
	taskHandlers := handlers.NewTaskHandlers(database)
	classifyHandlers := handlers.NewClassifyHandlers(cls)
	resourceHandlers := handlers.NewResourceHandlers(database)
	promptHandlers := handlers.NewPromptHandlers(database)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    config.AppName,
		Version: Version,
	}, nil)

	// Prospects
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_prospect",
		Description: "Add a prospect to the pipeline, creating its company when needed",
	}, prospectHandlers.AddProspect)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_prospects",
		Description: "List prospects, optionally filtered by pipeline status",
	}, prospectHandlers.ListProspects)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_prospect",
		Description: "Show a prospect with touches, replies, routing history, queued tasks, and any open handoff",
	}, prospectHandlers.GetProspect)

	// Review
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_approvals",
		Description: "List drafted responses waiting for human approval",
	}, reviewHandlers.ListApprovals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "approve_draft",
		Description: "Approve a drafted response, optionally replacing its text; the agent sends it on its next cycle",
	}, reviewHandlers.ApproveDraft)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reject_draft",
		Description: "Reject a drafted response so it is never sent",
	}, reviewHandlers.RejectDraft)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_handoffs",
		Description: "List prospects handed off to a person",
	}, reviewHandlers.ListHandoffs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_handoff",
		Description: "Mark a handoff as resolved",
	}, reviewHandlers.ResolveHandoff)

	// Tasks
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List agent tasks by status (pending, in_progress, failed)",
	}, taskHandlers.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retry_task",
		Description: "Requeue a failed task, optionally after a delay",
	}, taskHandlers.RetryTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "enqueue_task",
		Description: "Queue a discover, research, engage, or qualify task for a prospect",
	}, taskHandlers.EnqueueTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "queue_stats",
		Description: "Count tasks and prospects by status",
	}, taskHandlers.QueueStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_reply",
		Description: "Classify reply text and show where it would be routed, without storing anything",
	}, classifyHandlers.ClassifyReply)

	// Resources
	for _, r := range []struct{ path, name, desc string }{
		{"pipeline", "Pipeline", "Task and prospect counts by status"},
		{"approvals", "Pending approvals", "Drafts waiting for review"},
		{"handoffs", "Open handoffs", "Prospects waiting on a person"},
		{"tasks", "Failed tasks", "Tasks that exhausted their retries"},
		{"prospects", "Prospects", "Every prospect in the pipeline"},
	} {
		server.AddResource(&mcp.Resource{
			URI:         "outreach://" + r.path,
			Name:        r.name,
			Description: r.desc,
			MIMEType:    "application/json",
		}, resourceHandlers.ReadResource)
	}

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "outreach://prospects/{id}",
		Name:        "Prospect detail",
		Description: "A prospect with its full engagement history",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        "review-draft",
		Description: "Review a drafted response against the reply that triggered it",
		Arguments: []*mcp.PromptArgument{
			{Name: "approval_id", Description: "Approval request ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "handoff-brief",
		Description: "Brief a person taking over a handed-off prospect",
		Arguments: []*mcp.PromptArgument{
			{Name: "handoff_id", Description: "Handoff ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Summarize pipeline health and failed work",
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(database *sql.DB, cfg *config.Config) error {
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	cls := NewStandaloneClassifier(ctx, cfg, logger, false)

	logger.Info("starting MCP server", zap.String("name", config.AppName), zap.String("version", Version))
	server := NewMCPServer(database, cls)
	return server.Run(ctx, &mcp.StdioTransport{})
}
