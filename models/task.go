// ABOUTME: Task model for the outreach scheduler queue
// ABOUTME: Defines task types, statuses, and the typed payload union carried per task type
package models

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// TaskType names a step in the prospect engagement lifecycle.
type TaskType string

const (
	TaskDiscover TaskType = "discover"
	TaskResearch TaskType = "research"
	TaskEngage   TaskType = "engage"
	TaskFollowUp TaskType = "follow_up"
	TaskRespond  TaskType = "respond"
	TaskSchedule TaskType = "schedule"
	TaskQualify  TaskType = "qualify"
	TaskHandoff  TaskType = "handoff"
)

// TaskStatus is the lifecycle state of a queued task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// IsValidTaskType reports whether t is a known task type.
func IsValidTaskType(t TaskType) bool {
	switch t {
	case TaskDiscover, TaskResearch, TaskEngage, TaskFollowUp,
		TaskRespond, TaskSchedule, TaskQualify, TaskHandoff:
		return true
	}
	return false
}

type Task struct {
	ID           string      `json:"id"`
	Type         TaskType    `json:"type"`
	ProspectID   uuid.UUID   `json:"prospect_id"`
	Priority     int         `json:"priority"`
	ScheduledFor time.Time   `json:"scheduled_for"`
	Payload      TaskPayload `json:"payload"`
	Status       TaskStatus  `json:"status"`
	Error        string      `json:"error,omitempty"`
	Attempts     int         `json:"attempts"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewTaskID returns a ULID. IDs minted by one process sort in creation order,
// which gives FIFO ordering among tasks of equal priority.
func NewTaskID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// ClampPriority bounds a priority to [0,100].
func ClampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// TaskPayload is the per-type context a task carries. Each task type has
// exactly one payload struct, so handlers only see the fields they need.
type TaskPayload interface {
	TaskType() TaskType
}

type DiscoverPayload struct {
	Source string `json:"source,omitempty"`
}

type ResearchPayload struct {
	IntentScore int `json:"intent_score"`
}

type EngagePayload struct {
	Channel string `json:"channel,omitempty"`
}

type FollowUpPayload struct {
	SeriesID    string `json:"series_id"`
	TouchNumber int    `json:"touch_number"`
	Channel     string `json:"channel"`
}

type RespondPayload struct {
	ReplyID uuid.UUID `json:"reply_id"`
}

type SchedulePayload struct {
	ReplyID       uuid.UUID `json:"reply_id"`
	RequestedTime string    `json:"requested_time,omitempty"`
}

type QualifyPayload struct {
	Trigger string     `json:"trigger,omitempty"`
	ReplyID *uuid.UUID `json:"reply_id,omitempty"`
}

type HandoffPayload struct {
	Reason  string     `json:"reason"`
	Score   int        `json:"score,omitempty"`
	ReplyID *uuid.UUID `json:"reply_id,omitempty"`
}

func (DiscoverPayload) TaskType() TaskType { return TaskDiscover }
func (ResearchPayload) TaskType() TaskType { return TaskResearch }
func (EngagePayload) TaskType() TaskType   { return TaskEngage }
func (FollowUpPayload) TaskType() TaskType { return TaskFollowUp }
func (RespondPayload) TaskType() TaskType  { return TaskRespond }
func (SchedulePayload) TaskType() TaskType { return TaskSchedule }
func (QualifyPayload) TaskType() TaskType  { return TaskQualify }
func (HandoffPayload) TaskType() TaskType  { return TaskHandoff }

// EncodePayload serializes a payload for storage.
func EncodePayload(p TaskPayload) (string, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", p.TaskType(), err)
	}
	return string(b), nil
}

// DecodePayload rebuilds the concrete payload for a task type.
func DecodePayload(t TaskType, raw string) (TaskPayload, error) {
	var p TaskPayload
	switch t {
	case TaskDiscover:
		p = &DiscoverPayload{}
	case TaskResearch:
		p = &ResearchPayload{}
	case TaskEngage:
		p = &EngagePayload{}
	case TaskFollowUp:
		p = &FollowUpPayload{}
	case TaskRespond:
		p = &RespondPayload{}
	case TaskSchedule:
		p = &SchedulePayload{}
	case TaskQualify:
		p = &QualifyPayload{}
	case TaskHandoff:
		p = &HandoffPayload{}
	default:
		return nil, fmt.Errorf("unknown task type: %s", t)
	}

	if raw != "" {
		if err := json.Unmarshal([]byte(raw), p); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
		}
	}

	return derefPayload(p), nil
}

func derefPayload(p TaskPayload) TaskPayload {
	switch v := p.(type) {
	case *DiscoverPayload:
		return *v
	case *ResearchPayload:
		return *v
	case *EngagePayload:
		return *v
	case *FollowUpPayload:
		return *v
	case *RespondPayload:
		return *v
	case *SchedulePayload:
		return *v
	case *QualifyPayload:
		return *v
	case *HandoffPayload:
		return *v
	}
	return p
}
