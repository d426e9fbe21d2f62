// ABOUTME: Priority task queue for the outreach scheduler
// ABOUTME: Arena of tasks indexed by ID, a delay heap by due time, and a ready heap by priority
package queue

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

var ErrTaskNotFound = errors.New("task not in queue")

// Store persists queue state so active tasks survive a restart.
type Store interface {
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	LoadActive(ctx context.Context) ([]*models.Task, error)
}

// Stats is a point-in-time view of the queue.
type Stats struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
}

// Queue orders active tasks for the scheduler. Every task lives in the arena
// until it completes or fails. Pending tasks sit in the delayed heap until
// due, then move to the ready heap. In-progress tasks are in neither heap.
type Queue struct {
	mu      sync.Mutex
	store   Store
	logger  *zap.Logger
	arena   map[string]*entry
	delayed delayHeap
	ready   readyHeap
	seq     uint64
}

// New creates an empty queue. A nil store keeps the queue in memory only.
func New(store Store, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		store:  store,
		logger: logger,
		arena:  make(map[string]*entry),
	}
}

// Restore loads the active tasks from the store. Tasks left in progress by a
// previous process are returned to pending.
func (q *Queue) Restore(ctx context.Context) (int, error) {
	if q.store == nil {
		return 0, nil
	}
	tasks, err := q.store.LoadActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active tasks: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	restored := 0
	for _, t := range tasks {
		if _, ok := q.arena[t.ID]; ok {
			continue
		}
		if t.Status == models.TaskInProgress {
			t.Status = models.TaskPending
			q.persist(ctx, t)
		}
		q.insert(t)
		restored++
	}
	return restored, nil
}

// Sync adds pending tasks that reached the store without going through this
// queue, such as manual retries or tasks enqueued by operator tools.
func (q *Queue) Sync(ctx context.Context) (int, error) {
	if q.store == nil {
		return 0, nil
	}
	tasks, err := q.store.LoadActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active tasks: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, t := range tasks {
		if t.Status != models.TaskPending {
			continue
		}
		if _, ok := q.arena[t.ID]; ok {
			continue
		}
		q.insert(t)
		added++
	}
	return added, nil
}

// Enqueue persists and queues a new task. Missing ID and timestamps are
// filled in and the priority is clamped to [0,100].
func (q *Queue) Enqueue(ctx context.Context, task *models.Task) error {
	if task == nil || !models.IsValidTaskType(task.Type) {
		return fmt.Errorf("invalid task")
	}
	if task.Payload != nil && task.Payload.TaskType() != task.Type {
		return fmt.Errorf("payload for %s does not match task type %s", task.Payload.TaskType(), task.Type)
	}

	now := time.Now().UTC()
	if task.ID == "" {
		task.ID = models.NewTaskID(now)
	}
	if task.ScheduledFor.IsZero() {
		task.ScheduledFor = now
	}
	task.Priority = models.ClampPriority(task.Priority)
	task.Status = models.TaskPending

	if q.store != nil {
		if err := q.store.Save(ctx, task); err != nil {
			return fmt.Errorf("failed to persist task: %w", err)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.arena[task.ID]; ok {
		return fmt.Errorf("task %s already queued", task.ID)
	}
	q.insert(task)
	return nil
}

// DequeueTopN returns up to n tasks due at now, highest priority first and
// FIFO within a priority. Returned tasks are marked in progress.
func (q *Queue) DequeueTopN(ctx context.Context, now time.Time, n int) []models.Task {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.delayed.Len() > 0 && !q.delayed[0].task.ScheduledFor.After(now) {
		e := heap.Pop(&q.delayed).(*entry)
		heap.Push(&q.ready, e)
	}

	var out []models.Task
	for len(out) < n && q.ready.Len() > 0 {
		e := heap.Pop(&q.ready).(*entry)
		e.task.Status = models.TaskInProgress
		e.task.Attempts++
		q.persist(ctx, e.task)
		out = append(out, *e.task)
	}
	return out
}

// MarkStatus records the outcome of a dequeued task. Completed tasks leave the
// queue and the store. Failed tasks leave the queue but stay stored with their
// error. Pending returns the task to the queue at its existing schedule.
func (q *Queue) MarkStatus(ctx context.Context, id string, status models.TaskStatus, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.arena[id]
	if !ok {
		return ErrTaskNotFound
	}

	switch status {
	case models.TaskCompleted:
		q.remove(e)
		e.task.Status = status
		if q.store != nil {
			if err := q.store.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete completed task: %w", err)
			}
		}
	case models.TaskFailed:
		q.remove(e)
		e.task.Status = status
		e.task.Error = errMsg
		q.persist(ctx, e.task)
	case models.TaskPending:
		q.detach(e)
		e.task.Status = status
		e.task.Error = errMsg
		heap.Push(&q.delayed, e)
		q.persist(ctx, e.task)
	case models.TaskInProgress:
		q.detach(e)
		e.task.Status = status
		q.persist(ctx, e.task)
	default:
		return fmt.Errorf("unknown task status: %s", status)
	}
	return nil
}

// Defer returns a dequeued task to pending and moves its schedule to at.
func (q *Queue) Defer(ctx context.Context, id string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.arena[id]
	if !ok {
		return ErrTaskNotFound
	}
	q.detach(e)
	e.task.Status = models.TaskPending
	e.task.ScheduledFor = at.UTC()
	heap.Push(&q.delayed, e)
	q.persist(ctx, e.task)
	return nil
}

// HasActive reports whether the prospect has a pending or in-progress task of
// the given type.
func (q *Queue) HasActive(prospectID uuid.UUID, taskType models.TaskType) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.arena {
		if e.task.ProspectID == prospectID && e.task.Type == taskType {
			return true
		}
	}
	return false
}

// Cancel drops the prospect's pending tasks of a type and returns how many
// were removed. In-progress tasks are left alone.
func (q *Queue) Cancel(ctx context.Context, prospectID uuid.UUID, taskType models.TaskType) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancelled := 0
	for id, e := range q.arena {
		if e.task.ProspectID != prospectID || e.task.Type != taskType || e.task.Status != models.TaskPending {
			continue
		}
		q.remove(e)
		if q.store != nil {
			if err := q.store.Delete(ctx, id); err != nil {
				q.logger.Warn("failed to delete cancelled task", zap.String("task_id", id), zap.Error(err))
			}
		}
		cancelled++
	}
	return cancelled
}

// Reschedule moves the prospect's pending tasks of a type to at and returns
// how many were moved.
func (q *Queue) Reschedule(ctx context.Context, prospectID uuid.UUID, taskType models.TaskType, at time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	moved := 0
	for _, e := range q.arena {
		if e.task.ProspectID != prospectID || e.task.Type != taskType || e.task.Status != models.TaskPending {
			continue
		}
		q.detach(e)
		e.task.ScheduledFor = at.UTC()
		heap.Push(&q.delayed, e)
		q.persist(ctx, e.task)
		moved++
	}
	return moved
}

// Len returns the number of active tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.arena)
}

// Stats counts active tasks by status.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	var s Stats
	for _, e := range q.arena {
		if e.task.Status == models.TaskInProgress {
			s.InProgress++
		} else {
			s.Pending++
		}
	}
	return s
}

// Tasks returns a snapshot of the active tasks for a prospect ordered by due time.
func (q *Queue) Tasks(prospectID uuid.UUID) []models.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []models.Task
	for _, e := range q.arena {
		if e.task.ProspectID == prospectID {
			out = append(out, *e.task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledFor.Equal(out[j].ScheduledFor) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledFor.Before(out[j].ScheduledFor)
	})
	return out
}

// insert adds a pending or in-progress task to the arena. Caller holds mu.
func (q *Queue) insert(t *models.Task) {
	q.seq++
	e := &entry{task: t, seq: q.seq, index: -1}
	q.arena[t.ID] = e
	if t.Status == models.TaskPending {
		heap.Push(&q.delayed, e)
	}
}

// detach takes the entry out of whichever heap holds it. Caller holds mu.
func (q *Queue) detach(e *entry) {
	switch e.where {
	case inDelayed:
		heap.Remove(&q.delayed, e.index)
	case inReady:
		heap.Remove(&q.ready, e.index)
	}
	e.where = inNone
	e.index = -1
}

// remove detaches the entry and drops it from the arena. Caller holds mu.
func (q *Queue) remove(e *entry) {
	q.detach(e)
	delete(q.arena, e.task.ID)
}

func (q *Queue) persist(ctx context.Context, t *models.Task) {
	if q.store == nil {
		return
	}
	if err := q.store.Save(ctx, t); err != nil {
		q.logger.Warn("failed to persist task", zap.String("task_id", t.ID), zap.Error(err))
	}
}
