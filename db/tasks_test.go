// ABOUTME: Tests for the task repository
// ABOUTME: Covers save/update, active loading, retry of failed tasks, and payload round trips
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

func newTestTask(prospectID uuid.UUID, taskType models.TaskType, payload models.TaskPayload) *models.Task {
	now := time.Now().UTC()
	return &models.Task{
		ID:           models.NewTaskID(now),
		Type:         taskType,
		ProspectID:   prospectID,
		Priority:     50,
		ScheduledFor: now,
		Payload:      payload,
		Status:       models.TaskPending,
	}
}

func TestTaskRepositorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))
	prospectID := uuid.New()

	task := newTestTask(prospectID, models.TaskFollowUp, models.FollowUpPayload{SeriesID: "s1", TouchNumber: 3, Channel: models.ChannelEmail})
	require.NoError(t, repo.Save(ctx, task))

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskFollowUp, got.Type)
	assert.Equal(t, prospectID, got.ProspectID)
	payload, ok := got.Payload.(models.FollowUpPayload)
	require.True(t, ok)
	assert.Equal(t, 3, payload.TouchNumber)
	assert.Equal(t, "s1", payload.SeriesID)

	task.Status = models.TaskFailed
	task.Error = "boom"
	task.Attempts = 1
	require.NoError(t, repo.Save(ctx, task))

	got, err = repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
	assert.Equal(t, 1, got.Attempts)
}

func TestTaskRepositoryRejectsInvalid(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))
	assert.ErrorIs(t, repo.Save(context.Background(), nil), ErrInvalidTask)
	assert.ErrorIs(t, repo.Save(context.Background(), &models.Task{Type: models.TaskEngage}), ErrInvalidTask)
}

func TestTaskRepositoryLoadActiveAndRetry(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))
	pid := uuid.New()

	pending := newTestTask(pid, models.TaskEngage, models.EngagePayload{})
	running := newTestTask(pid, models.TaskResearch, models.ResearchPayload{IntentScore: 70})
	running.Status = models.TaskInProgress
	failed := newTestTask(pid, models.TaskQualify, models.QualifyPayload{})
	failed.Status = models.TaskFailed
	failed.Error = "backend down"

	for _, task := range []*models.Task{pending, running, failed} {
		require.NoError(t, repo.Save(ctx, task))
	}

	active, err := repo.LoadActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	failedList, err := repo.ListByStatus(ctx, models.TaskFailed, 10)
	require.NoError(t, err)
	require.Len(t, failedList, 1)
	assert.Equal(t, "backend down", failedList[0].Error)

	require.NoError(t, repo.Retry(ctx, failed.ID, time.Now()))
	got, err := repo.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, got.Status)
	assert.Empty(t, got.Error)

	// only failed tasks can be retried
	assert.ErrorIs(t, repo.Retry(ctx, pending.ID, time.Now()), ErrTaskNotFound)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.TaskPending])
	assert.Equal(t, 1, counts[models.TaskInProgress])

	require.NoError(t, repo.Delete(ctx, pending.ID))
	_, err = repo.Get(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
