// ABOUTME: Task repository backing the scheduler queue
// ABOUTME: Persists tasks so the queue survives restarts and failed tasks stay reviewable
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidTask  = errors.New("invalid task")
)

// TaskRepository provides persistence for scheduler tasks.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, type, prospect_id, priority, scheduled_for, payload, status, error, attempts, created_at, updated_at`

// Save inserts or replaces a task.
func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == "" || !models.IsValidTaskType(task.Type) {
		return ErrInvalidTask
	}

	payload, err := models.EncodePayload(task.Payload)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	var errText interface{}
	if task.Error != "" {
		errText = task.Error
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			priority = excluded.priority,
			scheduled_for = excluded.scheduled_for,
			payload = excluded.payload,
			status = excluded.status,
			error = excluded.error,
			attempts = excluded.attempts,
			updated_at = excluded.updated_at
	`, task.ID, string(task.Type), task.ProspectID.String(), models.ClampPriority(task.Priority),
		task.ScheduledFor.UTC(), payload, string(task.Status), errText, task.Attempts,
		task.CreatedAt.UTC(), task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func scanTask(row interface{ Scan(...interface{}) error }) (*models.Task, error) {
	var t models.Task
	var taskType, status, payload string
	var errText sql.NullString

	err := row.Scan(
		&t.ID,
		&taskType,
		&t.ProspectID,
		&t.Priority,
		&t.ScheduledFor,
		&payload,
		&status,
		&errText,
		&t.Attempts,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = models.TaskType(taskType)
	t.Status = models.TaskStatus(status)
	t.Error = errText.String

	t.Payload, err = models.DecodePayload(t.Type, payload)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get retrieves a task by ID.
func (r *TaskRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// LoadActive returns pending and in-progress tasks in ID order.
func (r *TaskRepository) LoadActive(ctx context.Context) ([]*models.Task, error) {
	return r.query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status IN ('pending', 'in_progress')
		ORDER BY id
	`)
}

// ListByStatus returns tasks in a status, most recently updated first.
func (r *TaskRepository) ListByStatus(ctx context.Context, status models.TaskStatus, limit int) ([]*models.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status = ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, string(status), limit)
}

// ListForProspect returns every stored task for a prospect.
func (r *TaskRepository) ListForProspect(ctx context.Context, prospectID uuid.UUID) ([]*models.Task, error) {
	return r.query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE prospect_id = ?
		ORDER BY id
	`, prospectID.String())
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// Retry moves a failed task back to pending so the next queue sync picks it up.
func (r *TaskRepository) Retry(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = 'pending', error = NULL, scheduled_for = ?, updated_at = ?
		WHERE id = ? AND status = 'failed'
	`, at.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to retry task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CountByStatus returns the number of tasks in each status.
func (r *TaskRepository) CountByStatus(ctx context.Context) (map[models.TaskStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.TaskStatus(status)] = n
	}
	return counts, rows.Err()
}
