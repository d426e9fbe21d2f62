// ABOUTME: Task queue MCP tool handlers
// ABOUTME: Implements list_tasks, retry_task, enqueue_task, and queue_stats tools
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/queue"
)

// TaskHandlers write through the shared task table. A running agent picks
// up tasks added here on its next cycle.
type TaskHandlers struct {
	db    *sql.DB
	tasks *db.TaskRepository
	queue *queue.Queue
}

func NewTaskHandlers(database *sql.DB) *TaskHandlers {
	repo := db.NewTaskRepository(database)
	return &TaskHandlers{db: database, tasks: repo, queue: queue.New(repo, nil)}
}

type TaskOutput struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	ProspectID   string `json:"prospect_id"`
	Priority     int    `json:"priority"`
	Status       string `json:"status"`
	ScheduledFor string `json:"scheduled_for"`
	Attempts     int    `json:"attempts"`
	Error        string `json:"error,omitempty"`
}

type ListTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"Task status: pending (default), in_progress, or failed"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type ListTasksOutput struct {
	Tasks []TaskOutput `json:"tasks"`
}

func (h *TaskHandlers) ListTasks(ctx context.Context, request *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	status := models.TaskStatus(input.Status)
	if status == "" {
		status = models.TaskPending
	}

	tasks, err := h.tasks.ListByStatus(ctx, status, input.Limit)
	if err != nil {
		return nil, ListTasksOutput{}, err
	}

	result := make([]TaskOutput, len(tasks))
	for i, t := range tasks {
		result[i] = taskToOutput(t)
	}
	return nil, ListTasksOutput{Tasks: result}, nil
}

type RetryTaskInput struct {
	ID           string `json:"id" jsonschema:"Failed task ID (required)"`
	DelayMinutes int    `json:"delay_minutes,omitempty" jsonschema:"Minutes to wait before the retry runs (default 0)"`
}

func (h *TaskHandlers) RetryTask(ctx context.Context, request *mcp.CallToolRequest, input RetryTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.ID == "" {
		return nil, TaskOutput{}, fmt.Errorf("id is required")
	}
	if input.DelayMinutes < 0 {
		return nil, TaskOutput{}, fmt.Errorf("delay_minutes cannot be negative")
	}

	at := time.Now().UTC().Add(time.Duration(input.DelayMinutes) * time.Minute)
	if err := h.tasks.Retry(ctx, input.ID, at); err != nil {
		if errors.Is(err, db.ErrTaskNotFound) {
			return nil, TaskOutput{}, fmt.Errorf("no failed task %s", input.ID)
		}
		return nil, TaskOutput{}, err
	}

	task, err := h.tasks.Get(ctx, input.ID)
	if err != nil {
		return nil, TaskOutput{}, err
	}
	return nil, taskToOutput(task), nil
}

type EnqueueTaskInput struct {
	ProspectID string `json:"prospect_id" jsonschema:"Prospect ID (required)"`
	Type       string `json:"type" jsonschema:"Task type: discover, research, engage, or qualify"`
	Priority   int    `json:"priority,omitempty" jsonschema:"Priority from 0 to 100 (default 50)"`
	Channel    string `json:"channel,omitempty" jsonschema:"Channel for engage tasks: email or linkedin"`
}

func (h *TaskHandlers) EnqueueTask(ctx context.Context, request *mcp.CallToolRequest, input EnqueueTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	prospectID, err := uuid.Parse(input.ProspectID)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("invalid prospect ID: %w", err)
	}
	prospect, err := db.GetProspect(h.db, prospectID)
	if err != nil {
		return nil, TaskOutput{}, err
	}
	if prospect == nil {
		return nil, TaskOutput{}, fmt.Errorf("prospect not found: %s", prospectID)
	}
	if models.IsTerminal(prospect.Status) {
		return nil, TaskOutput{}, fmt.Errorf("prospect is %s and cannot be engaged", prospect.Status)
	}

	payload, err := manualPayload(input)
	if err != nil {
		return nil, TaskOutput{}, err
	}

	priority := input.Priority
	if priority == 0 {
		priority = 50
	}
	task := &models.Task{
		Type:       payload.TaskType(),
		ProspectID: prospectID,
		Priority:   priority,
		Payload:    payload,
	}
	if err := h.queue.Enqueue(ctx, task); err != nil {
		return nil, TaskOutput{}, err
	}
	return nil, taskToOutput(task), nil
}

// manualPayload builds the payload for the task types an operator may queue.
// Reply-driven tasks are created by the router only.
func manualPayload(input EnqueueTaskInput) (models.TaskPayload, error) {
	switch models.TaskType(input.Type) {
	case models.TaskDiscover:
		return models.DiscoverPayload{Source: "manual"}, nil
	case models.TaskResearch:
		return models.ResearchPayload{}, nil
	case models.TaskEngage:
		if input.Channel != "" && !models.IsValidChannel(input.Channel) {
			return nil, fmt.Errorf("invalid channel: %s", input.Channel)
		}
		return models.EngagePayload{Channel: input.Channel}, nil
	case models.TaskQualify:
		return models.QualifyPayload{Trigger: "manual"}, nil
	case "":
		return nil, fmt.Errorf("type is required")
	default:
		return nil, fmt.Errorf("task type %s cannot be queued manually", input.Type)
	}
}

type QueueStatsInput struct{}

type QueueStatsOutput struct {
	Tasks     map[string]int `json:"tasks"`
	Prospects map[string]int `json:"prospects"`
}

func (h *TaskHandlers) QueueStats(ctx context.Context, request *mcp.CallToolRequest, input QueueStatsInput) (*mcp.CallToolResult, QueueStatsOutput, error) {
	stats, err := pipelineStats(ctx, h.db, h.tasks)
	if err != nil {
		return nil, QueueStatsOutput{}, err
	}
	return nil, *stats, nil
}

func pipelineStats(ctx context.Context, database *sql.DB, tasks *db.TaskRepository) (*QueueStatsOutput, error) {
	taskCounts, err := tasks.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	prospectCounts, err := db.CountProspectsByStatus(database)
	if err != nil {
		return nil, err
	}

	out := &QueueStatsOutput{Tasks: make(map[string]int), Prospects: prospectCounts}
	for status, n := range taskCounts {
		out.Tasks[string(status)] = n
	}
	return out, nil
}

func taskToOutput(t *models.Task) TaskOutput {
	return TaskOutput{
		ID:           t.ID,
		Type:         string(t.Type),
		ProspectID:   t.ProspectID.String(),
		Priority:     t.Priority,
		Status:       string(t.Status),
		ScheduledFor: formatTime(t.ScheduledFor),
		Attempts:     t.Attempts,
		Error:        t.Error,
	}
}
