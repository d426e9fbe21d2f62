// ABOUTME: Tests for decision, classification, approval, handoff, suppression, and counter persistence
// ABOUTME: Exercises the audit tables written by the decision engine and response router
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

func TestDecisionLog(t *testing.T) {
	ctx := context.Background()
	log := NewDecisionLog(openTestDB(t))

	require.NoError(t, log.Record(ctx, models.DecisionRecord{
		Type:       models.DecisionShouldEngage,
		ProspectID: uuid.New().String(),
		Context:    `{"intent":80}`,
		Decision: models.Decision{
			Action:       "engage",
			Reasoning:    "strong intent",
			Confidence:   0.8,
			Alternatives: []models.Alternative{{Action: "skip", Score: 0.2}},
		},
		LatencyMS: 12,
	}))
	require.NoError(t, log.Record(ctx, models.DecisionRecord{
		Type:     models.DecisionTiming,
		Context:  `{}`,
		Decision: models.Decision{Action: models.ActionDefer, Confidence: 0.3, Metadata: map[string]interface{}{"fallback": true}},
	}))

	all, err := log.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	engage, err := log.List(ctx, models.DecisionShouldEngage, 10)
	require.NoError(t, err)
	require.Len(t, engage, 1)
	assert.Equal(t, "engage", engage[0].Decision.Action)
	require.Len(t, engage[0].Decision.Alternatives, 1)
	assert.Equal(t, "skip", engage[0].Decision.Alternatives[0].Action)

	fallbacks, err := log.CountFallbacks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fallbacks)
}

func TestClassificationAndRoutingPersistence(t *testing.T) {
	database := openTestDB(t)
	prospectID, replyID := uuid.New(), uuid.New()

	c := models.Classification{
		Category:   models.CategoryMeetingRequest,
		Sentiment:  models.Sentiment{Score: 0.6, Label: models.SentimentVeryPositive, Confidence: 0.7},
		Intents:    []models.Intent{{Type: "schedule_meeting", Confidence: 0.7}},
		Confidence: 0.88,
		Source:     models.SourceRules,
	}
	require.NoError(t, SaveClassification(database, replyID, prospectID, c))

	got, err := GetLatestClassification(database, replyID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.CategoryMeetingRequest, got.Category)
	assert.True(t, got.HasIntent("schedule_meeting"))

	handoffID := uuid.New()
	d := &models.RoutingDecision{
		ProspectID:          prospectID,
		ReplyID:             replyID,
		Category:            models.CategoryMeetingRequest,
		RoutedTo:            models.RouteHuman,
		Confidence:          0.88,
		ActionTaken:         "handed_to_human",
		RequiresHumanReview: true,
		EscalatedToHuman:    models.BoolPtr(true),
		HandoffID:           &handoffID,
	}
	require.NoError(t, SaveRoutingDecision(database, d))

	history, err := GetRoutingDecisions(database, prospectID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.RouteHuman, history[0].RoutedTo)
	require.NotNil(t, history[0].EscalatedToHuman)
	assert.True(t, *history[0].EscalatedToHuman)
	assert.Nil(t, history[0].MeetingScheduled)
	require.NotNil(t, history[0].HandoffID)
	assert.Equal(t, handoffID, *history[0].HandoffID)
}

func TestApprovalRequests(t *testing.T) {
	database := openTestDB(t)
	req := &models.ApprovalRequest{ProspectID: uuid.New(), Channel: models.ChannelEmail, Draft: "Thanks!", Confidence: 0.8}
	require.NoError(t, CreateApprovalRequest(database, req))

	pending, err := ListApprovalRequests(database, models.ApprovalPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, ReviewApprovalRequest(database, req.ID, true, "Thanks, talk soon!"))
	got, err := GetApprovalRequest(database, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, got.Status)
	assert.Equal(t, "Thanks, talk soon!", got.Draft)
	assert.NotNil(t, got.ReviewedAt)

	// a reviewed request cannot be reviewed again
	assert.Error(t, ReviewApprovalRequest(database, req.ID, false, ""))

	require.NoError(t, MarkApprovalSent(database, req.ID))
	got, err = GetApprovalRequest(database, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalSent, got.Status)
}

func TestHandoffs(t *testing.T) {
	database := openTestDB(t)
	pid := uuid.New()

	open, err := GetOpenHandoff(database, pid)
	require.NoError(t, err)
	assert.Nil(t, open)

	h := &models.Handoff{ProspectID: pid, Reason: "qualified", Summary: "score 92"}
	require.NoError(t, CreateHandoff(database, h))

	open, err = GetOpenHandoff(database, pid)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, h.ID, open.ID)

	require.NoError(t, ResolveHandoff(database, h.ID))
	open, err = GetOpenHandoff(database, pid)
	require.NoError(t, err)
	assert.Nil(t, open)
	assert.Error(t, ResolveHandoff(database, h.ID))

	resolved, err := ListHandoffs(database, models.HandoffResolved, 0)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
}

func TestSuppressions(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, AddSuppression(database, " Ops@Example.com", "unsubscribe"))
	require.NoError(t, AddSuppression(database, "ops@example.com", "again"))

	ok, err := IsSuppressed(database, "OPS@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsSuppressed(database, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSendCounters(t *testing.T) {
	database := openTestDB(t)
	day := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		ok, err := ReserveSend(database, day, 2)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := ReserveSend(database, day, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := GetSendCount(database, day)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a new day starts a new counter
	ok, err = ReserveSend(database, day.Add(24*time.Hour), 2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, ReleaseSend(database, day))
	n, err = GetSendCount(database, day)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOutbox(t *testing.T) {
	database := openTestDB(t)
	msg := &OutboxMessage{ProspectID: uuid.New(), Channel: models.ChannelLinkedIn, Recipient: "https://linkedin.com/in/x", Body: "hi"}
	require.NoError(t, CreateOutboxMessage(database, msg))

	msgs, err := ListOutboxMessages(database, models.ChannelLinkedIn)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
}
