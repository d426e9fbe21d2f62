// ABOUTME: MCP resource handlers for exposing outreach state
// ABOUTME: Provides read-only access to the pipeline, review queues, and prospect timelines via URI
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

const resourceScheme = "outreach://"

type ResourceHandlers struct {
	db    *sql.DB
	tasks *db.TaskRepository
}

func NewResourceHandlers(database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{db: database, tasks: db.NewTaskRepository(database)}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "pipeline":
		stats, err := pipelineStats(ctx, h.db, h.tasks)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, stats)

	case "approvals":
		approvals, err := db.ListApprovalRequests(h.db, models.ApprovalPending, 1000)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, nonNil(approvals))

	case "handoffs":
		handoffs, err := db.ListHandoffs(h.db, models.HandoffOpen, 1000)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, nonNil(handoffs))

	case "tasks":
		failed, err := h.tasks.ListByStatus(ctx, models.TaskFailed, 1000)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, nonNil(failed))

	case "prospects":
		if len(parts) == 1 || parts[1] == "" {
			prospects, err := db.ListProspects(h.db, "", 1000)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, nonNil(prospects))
		}
		id, err := uuid.Parse(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid prospect ID: %w", err)
		}
		detail, err := loadProspectDetail(ctx, h.db, h.tasks, id)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, detail)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// nonNil keeps empty listings rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
