// ABOUTME: Tests for outreach MCP tool handlers
// ABOUTME: Validates tool input/output, review transitions, and task queue writes
package handlers

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/classifier"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func addProspect(t *testing.T, database *sql.DB, name, email string) *models.Prospect {
	t.Helper()
	p := &models.Prospect{Name: name, Email: email, Title: "VP of Sales", IntentScore: 70}
	require.NoError(t, db.CreateProspect(database, p))
	return p
}

func TestAddProspect(t *testing.T) {
	database := setupTestDB(t)
	h := NewProspectHandlers(database)
	ctx := context.Background()

	_, out, err := h.AddProspect(ctx, nil, AddProspectInput{
		Name:          "Dana Scully",
		Email:         " dana@fbi.gov ",
		Title:         "Director",
		CompanyName:   "FBI",
		EmployeeCount: 300,
		IntentScore:   65,
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@fbi.gov", out.Prospect.Email)
	assert.Equal(t, models.ProspectNew, out.Prospect.Status)
	assert.Equal(t, models.StageUnknown, out.Prospect.RelationshipStage)
	require.NotNil(t, out.Company)
	assert.Equal(t, out.Company.ID, out.Prospect.CompanyID)
	assert.Equal(t, 300, out.Company.EmployeeCount)

	stored, err := db.GetProspect(database, uuid.MustParse(out.Prospect.ID))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotNil(t, stored.LastActivityAt)

	// A second prospect at the same company reuses it and refreshes funding.
	_, out2, err := h.AddProspect(ctx, nil, AddProspectInput{
		Name:        "Fox Mulder",
		Email:       "fox@fbi.gov",
		CompanyName: "fbi",
		FundingUSD:  5_000_000,
	})
	require.NoError(t, err)
	require.NotNil(t, out2.Company)
	assert.Equal(t, out.Company.ID, out2.Company.ID)
	assert.Equal(t, 300, out2.Company.EmployeeCount)
	assert.Equal(t, int64(5_000_000), out2.Company.FundingUSD)
}

func TestAddProspectValidation(t *testing.T) {
	h := NewProspectHandlers(setupTestDB(t))
	ctx := context.Background()

	_, _, err := h.AddProspect(ctx, nil, AddProspectInput{Email: "a@b.com"})
	assert.Error(t, err, "name is required")

	_, _, err = h.AddProspect(ctx, nil, AddProspectInput{Name: "No Contact"})
	assert.Error(t, err, "email or linkedin is required")

	_, _, err = h.AddProspect(ctx, nil, AddProspectInput{Name: "X", Email: "x@y.com", IntentScore: 140})
	assert.Error(t, err, "intent out of range")
}

func TestListAndGetProspect(t *testing.T) {
	database := setupTestDB(t)
	h := NewProspectHandlers(database)
	ctx := context.Background()

	jane := addProspect(t, database, "Jane", "jane@example.com")
	addProspect(t, database, "John", "john@example.com")
	require.NoError(t, db.UpdateProspectStatus(database, jane.ID, models.ProspectEngaged))

	_, list, err := h.ListProspects(ctx, nil, ListProspectsInput{Status: models.ProspectEngaged})
	require.NoError(t, err)
	require.Len(t, list.Prospects, 1)
	assert.Equal(t, "Jane", list.Prospects[0].Name)

	_, all, err := h.ListProspects(ctx, nil, ListProspectsInput{})
	require.NoError(t, err)
	assert.Len(t, all.Prospects, 2)

	require.NoError(t, db.CreateTouch(database, &models.Touch{
		ProspectID: jane.ID, SeriesID: "s1", TouchNumber: 1, Channel: models.ChannelEmail, Subject: "Hello",
	}))
	require.NoError(t, db.CreateReply(database, &models.Reply{
		ProspectID: jane.ID, Channel: models.ChannelEmail, Body: "Tell me more", ReceivedAt: time.Now().UTC(),
	}))
	require.NoError(t, db.CreateHandoff(database, &models.Handoff{ProspectID: jane.ID, Reason: "qualified", Summary: "ready"}))

	_, detail, err := h.GetProspect(ctx, nil, GetProspectInput{ID: jane.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "Jane", detail.Prospect.Name)
	require.Len(t, detail.Touches, 1)
	assert.Equal(t, "Hello", detail.Touches[0].Subject)
	require.Len(t, detail.Replies, 1)
	assert.Equal(t, "Tell me more", detail.Replies[0].Body)
	assert.Empty(t, detail.Routing)
	assert.NotNil(t, detail.Tasks)
	require.NotNil(t, detail.OpenHandoff)
	assert.Equal(t, "qualified", detail.OpenHandoff.Reason)

	_, _, err = h.GetProspect(ctx, nil, GetProspectInput{ID: uuid.NewString()})
	assert.Error(t, err)
	_, _, err = h.GetProspect(ctx, nil, GetProspectInput{ID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestApproveAndRejectDrafts(t *testing.T) {
	database := setupTestDB(t)
	h := NewReviewHandlers(database)
	ctx := context.Background()
	p := addProspect(t, database, "Jane", "jane@example.com")

	first := &models.ApprovalRequest{ProspectID: p.ID, Channel: models.ChannelEmail, Draft: "Thanks!", Confidence: 0.6}
	second := &models.ApprovalRequest{ProspectID: p.ID, Channel: models.ChannelEmail, Draft: "Sure thing", Confidence: 0.4}
	require.NoError(t, db.CreateApprovalRequest(database, first))
	require.NoError(t, db.CreateApprovalRequest(database, second))

	_, pending, err := h.ListApprovals(ctx, nil, ListApprovalsInput{})
	require.NoError(t, err)
	assert.Len(t, pending.Approvals, 2)

	_, approved, err := h.ApproveDraft(ctx, nil, ApproveDraftInput{ID: first.ID.String(), EditedDraft: "Thanks, Jane!"})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.Status)
	assert.Equal(t, "Thanks, Jane!", approved.Draft)

	_, rejected, err := h.RejectDraft(ctx, nil, RejectDraftInput{ID: second.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, rejected.Status)
	assert.Equal(t, "Sure thing", rejected.Draft)

	_, _, err = h.ApproveDraft(ctx, nil, ApproveDraftInput{ID: second.ID.String()})
	assert.Error(t, err, "a reviewed draft cannot be approved")

	_, pending, err = h.ListApprovals(ctx, nil, ListApprovalsInput{})
	require.NoError(t, err)
	assert.Empty(t, pending.Approvals)

	_, approvedList, err := h.ListApprovals(ctx, nil, ListApprovalsInput{Status: models.ApprovalApproved})
	require.NoError(t, err)
	assert.Len(t, approvedList.Approvals, 1)
}

func TestHandoffInbox(t *testing.T) {
	database := setupTestDB(t)
	h := NewReviewHandlers(database)
	ctx := context.Background()
	p := addProspect(t, database, "Jane", "jane@example.com")

	handoff := &models.Handoff{ProspectID: p.ID, Reason: "review_required:meeting_request", Summary: "wants a call"}
	require.NoError(t, db.CreateHandoff(database, handoff))

	_, open, err := h.ListHandoffs(ctx, nil, ListHandoffsInput{})
	require.NoError(t, err)
	require.Len(t, open.Handoffs, 1)
	assert.Equal(t, p.ID.String(), open.Handoffs[0].ProspectID)
	assert.Empty(t, open.Handoffs[0].ResolvedAt)

	_, res, err := h.ResolveHandoff(ctx, nil, ResolveHandoffInput{ID: handoff.ID.String()})
	require.NoError(t, err)
	assert.True(t, res.Resolved)

	_, _, err = h.ResolveHandoff(ctx, nil, ResolveHandoffInput{ID: handoff.ID.String()})
	assert.Error(t, err)

	_, resolved, err := h.ListHandoffs(ctx, nil, ListHandoffsInput{Status: models.HandoffResolved})
	require.NoError(t, err)
	require.Len(t, resolved.Handoffs, 1)
	assert.NotEmpty(t, resolved.Handoffs[0].ResolvedAt)
}

func TestEnqueueAndListTasks(t *testing.T) {
	database := setupTestDB(t)
	h := NewTaskHandlers(database)
	ctx := context.Background()
	p := addProspect(t, database, "Jane", "jane@example.com")

	_, task, err := h.EnqueueTask(ctx, nil, EnqueueTaskInput{
		ProspectID: p.ID.String(),
		Type:       string(models.TaskEngage),
		Channel:    models.ChannelLinkedIn,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, 50, task.Priority)
	assert.Equal(t, string(models.TaskPending), task.Status)

	stored, err := db.NewTaskRepository(database).Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EngagePayload{Channel: models.ChannelLinkedIn}, stored.Payload)

	_, list, err := h.ListTasks(ctx, nil, ListTasksInput{})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, task.ID, list.Tasks[0].ID)

	_, stats, err := h.QueueStats(ctx, nil, QueueStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Tasks[string(models.TaskPending)])
	assert.Equal(t, 1, stats.Prospects[models.ProspectNew])
}

func TestEnqueueTaskRejections(t *testing.T) {
	database := setupTestDB(t)
	h := NewTaskHandlers(database)
	ctx := context.Background()
	p := addProspect(t, database, "Jane", "jane@example.com")

	tests := []struct {
		name  string
		input EnqueueTaskInput
	}{
		{"missing type", EnqueueTaskInput{ProspectID: p.ID.String()}},
		{"reply-driven type", EnqueueTaskInput{ProspectID: p.ID.String(), Type: string(models.TaskRespond)}},
		{"unknown channel", EnqueueTaskInput{ProspectID: p.ID.String(), Type: string(models.TaskEngage), Channel: "fax"}},
		{"unknown prospect", EnqueueTaskInput{ProspectID: uuid.NewString(), Type: string(models.TaskResearch)}},
		{"bad prospect id", EnqueueTaskInput{ProspectID: "nope", Type: string(models.TaskResearch)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.EnqueueTask(ctx, nil, tt.input)
			assert.Error(t, err)
		})
	}

	require.NoError(t, db.UpdateProspectStatus(database, p.ID, models.ProspectHandedOff))
	_, _, err := h.EnqueueTask(ctx, nil, EnqueueTaskInput{ProspectID: p.ID.String(), Type: string(models.TaskEngage)})
	assert.Error(t, err, "terminal prospects cannot be engaged")
}

func TestRetryFailedTask(t *testing.T) {
	database := setupTestDB(t)
	h := NewTaskHandlers(database)
	ctx := context.Background()
	p := addProspect(t, database, "Jane", "jane@example.com")

	repo := db.NewTaskRepository(database)
	failed := &models.Task{
		ID:           models.NewTaskID(time.Now()),
		Type:         models.TaskResearch,
		ProspectID:   p.ID,
		Priority:     40,
		ScheduledFor: time.Now().UTC(),
		Payload:      models.ResearchPayload{},
		Status:       models.TaskFailed,
		Error:        "decision engine unavailable",
		Attempts:     1,
	}
	require.NoError(t, repo.Save(ctx, failed))

	_, list, err := h.ListTasks(ctx, nil, ListTasksInput{Status: string(models.TaskFailed)})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "decision engine unavailable", list.Tasks[0].Error)

	_, retried, err := h.RetryTask(ctx, nil, RetryTaskInput{ID: failed.ID, DelayMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, string(models.TaskPending), retried.Status)
	assert.Empty(t, retried.Error)

	scheduled, err := time.Parse(time.RFC3339, retried.ScheduledFor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), scheduled, time.Minute)

	_, _, err = h.RetryTask(ctx, nil, RetryTaskInput{ID: failed.ID})
	assert.Error(t, err, "only failed tasks can be retried")
	_, _, err = h.RetryTask(ctx, nil, RetryTaskInput{ID: failed.ID, DelayMinutes: -1})
	assert.Error(t, err)
}

func TestClassifyReply(t *testing.T) {
	cfg := classifier.DefaultConfig()
	cfg.EnableAI = false
	h := NewClassifyHandlers(classifier.New(cfg, nil, nil))
	ctx := context.Background()

	_, out, err := h.ClassifyReply(ctx, nil, ClassifyReplyInput{
		Subject:      "Re: Quick question",
		Body:         "Not interested, please remove me",
		CurrentStage: models.StageEngaged,
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.CategoryNotInterested), out.Category)
	assert.Equal(t, models.StageDisqualified, out.NextStage)
	assert.Equal(t, models.SourceRules, out.Source)
	assert.NotEmpty(t, out.RoutedTo)
	assert.NotNil(t, out.Intents)

	_, _, err = h.ClassifyReply(ctx, nil, ClassifyReplyInput{Body: "   "})
	assert.Error(t, err)
}
