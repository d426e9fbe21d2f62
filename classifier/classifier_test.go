// ABOUTME: Tests for the two-stage reply classifier
// ABOUTME: Covers fast-path categories, AI escalation and fallback, the review gate, and output bounds
package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/decision"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

func rulesOnly() *Classifier {
	cfg := DefaultConfig()
	cfg.EnableAI = false
	return New(cfg, nil, nil)
}

func withFakeAI(t *testing.T) (*Classifier, *decision.FakeProvider) {
	t.Helper()
	fake := decision.NewFakeProvider()
	engine := decision.NewEngine(fake, nil, nil)
	return New(DefaultConfig(), engine, nil), fake
}

func TestClassify_NotInterestedRemoveMe(t *testing.T) {
	c := rulesOnly()

	cls := c.Classify(context.Background(), ReplyInput{Body: "Not interested, please remove me"})

	assert.Equal(t, models.CategoryNotInterested, cls.Category)
	assert.False(t, cls.RequiresHumanReview)
	assert.Equal(t, models.ActionRemoveFromSequence, cls.SuggestedAction.Action)
	assert.Equal(t, models.PriorityLow, cls.SuggestedAction.Priority)
	assert.Equal(t, models.SentimentNeutral, cls.Sentiment.Label)
	assert.Nil(t, cls.Objection)
	assert.Equal(t, models.SourceRules, cls.Source)
}

func TestClassify_MeetingRequestAlwaysReviewed(t *testing.T) {
	c := rulesOnly()

	cls := c.Classify(context.Background(), ReplyInput{Body: "Sure, can we hop on a call Tuesday at 2pm?"})

	assert.Equal(t, models.CategoryMeetingRequest, cls.Category)
	assert.True(t, cls.RequiresHumanReview)
	assert.Equal(t, models.PriorityUrgent, cls.SuggestedAction.Priority)
	assert.Equal(t, models.ActionScheduleMeeting, cls.SuggestedAction.Action)
	assert.True(t, cls.HasIntent(IntentScheduleMeeting))
	assert.Equal(t, "Tuesday at 2pm", cls.Entities.Timeline)
}

func TestFastPath(t *testing.T) {
	c := rulesOnly()

	tests := []struct {
		name     string
		in       ReplyInput
		category models.Category
		fast     bool
	}{
		{"out of office", ReplyInput{Body: "I am out of the office until March 10 with limited access to email."}, models.CategoryOutOfOffice, true},
		{"ooo subject", ReplyInput{Subject: "Out of Office: Re: intro", Body: "Thanks for your note."}, models.CategoryOutOfOffice, true},
		{"auto reply subject", ReplyInput{Subject: "Automatic reply: intro", Body: "Thanks for your message."}, models.CategoryAutoReply, true},
		{"unsubscribe", ReplyInput{Body: "Please unsubscribe me from this list."}, models.CategoryUnsubscribe, true},
		{"not interested", ReplyInput{Body: "No thanks, we're all set."}, models.CategoryNotInterested, true},
		{"meeting", ReplyInput{Body: "Can we set up a call next week?"}, models.CategoryMeetingRequest, true},
		{"wrong person", ReplyInput{Body: "I'm not the right person for this."}, models.CategoryWrongPerson, false},
		{"objection", ReplyInput{Body: "This is too expensive for us right now."}, models.CategoryObjection, false},
		{"question", ReplyInput{Body: "What does pricing look like for a team of 20?"}, models.CategoryQuestion, false},
		{"positive", ReplyInput{Body: "Sounds interesting, tell me more."}, models.CategoryPositiveInterest, false},
		{"unclear", ReplyInput{Body: "hmm"}, models.CategoryUnclear, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.FastPath(tt.in)
			switch r := res.(type) {
			case FastMatch:
				assert.True(t, tt.fast, "expected escalation")
				assert.Equal(t, tt.category, r.Classification.Category)
			case NeedsEscalation:
				assert.False(t, tt.fast, "expected fast match")
				assert.Equal(t, tt.category, r.Heuristic.Category)
				assert.NotEmpty(t, r.Cleaned)
			default:
				t.Fatalf("unexpected result %T", res)
			}
		})
	}
}

func TestClassify_UnclearGoesToReview(t *testing.T) {
	cls := rulesOnly().Classify(context.Background(), ReplyInput{Body: "hmm"})

	assert.Equal(t, models.CategoryUnclear, cls.Category)
	assert.True(t, cls.RequiresHumanReview)
	assert.Equal(t, models.ActionEscalateToHuman, cls.SuggestedAction.Action)
	assert.Equal(t, models.PriorityMedium, cls.SuggestedAction.Priority)
}

func TestClassify_ObjectionCarriesAnalysis(t *testing.T) {
	cls := rulesOnly().Classify(context.Background(), ReplyInput{Body: "We already use HubSpot and are happy with it."})

	assert.Equal(t, models.CategoryObjection, cls.Category)
	require.NotNil(t, cls.Objection)
	assert.Equal(t, ObjectionCompetition, cls.Objection.Type)
	assert.Equal(t, []string{"HubSpot"}, cls.Entities.Competitors)
	assert.Equal(t, models.ActionHandleObjection, cls.SuggestedAction.Action)
	assert.Equal(t, models.PriorityHigh, cls.SuggestedAction.Priority)
}

func TestClassify_QuotedHistoryIgnored(t *testing.T) {
	body := "Sounds good, tell me more.\n\nOn Mon, Mar 2, 2026 at 9:00 AM Sam <sam@vendor.com> wrote:\n> Please unsubscribe if not interested"

	cls := rulesOnly().Classify(context.Background(), ReplyInput{Body: body})

	assert.Equal(t, models.CategoryPositiveInterest, cls.Category)
}

func TestClassify_AIResultNormalized(t *testing.T) {
	c, fake := withFakeAI(t)
	fake.Script(KindClassify, decision.FakeResponse{Text: "```json\n" + `{
		"category": "question",
		"confidence": 0.82,
		"sentiment": {"score": 0.4, "label": "positive", "confidence": 0.7},
		"intents": [{"type": "request_info", "confidence": 1.4, "evidence": "tell me more"}],
		"suggested_action": {"action": "answer_question", "priority": "bogus", "suggested_response": " Happy to explain. "},
		"requires_human_review": false
	}` + "\n```"})

	cls := c.Classify(context.Background(), ReplyInput{Body: "Sounds interesting, tell me more."})

	assert.Equal(t, models.CategoryQuestion, cls.Category)
	assert.Equal(t, models.SourceAI, cls.Source)
	assert.Equal(t, 0.82, cls.Confidence)
	assert.Equal(t, models.PriorityMedium, cls.SuggestedAction.Priority)
	assert.Equal(t, "Happy to explain.", cls.SuggestedAction.SuggestedResponse)
	require.Len(t, cls.Intents, 1)
	assert.Equal(t, 1.0, cls.Intents[0].Confidence)
	assert.NotNil(t, cls.Entities.Competitors)
	assert.False(t, cls.RequiresHumanReview)

	assert.Equal(t, 1, fake.CallCount(KindClassify))
	assert.Equal(t, Stats{AI: 1}, c.Stats())
}

func TestClassify_FastPathSkipsAI(t *testing.T) {
	c, fake := withFakeAI(t)

	cls := c.Classify(context.Background(), ReplyInput{Body: "Please unsubscribe me."})

	assert.Equal(t, models.CategoryUnsubscribe, cls.Category)
	assert.Equal(t, 0, fake.CallCount(KindClassify))
	assert.Equal(t, int64(1), c.Stats().FastPath)
}

func TestClassify_AICannotWaiveReview(t *testing.T) {
	c, fake := withFakeAI(t)
	fake.Script(KindClassify, decision.FakeResponse{
		Text: `{"category":"meeting_request","confidence":0.95,"requires_human_review":false}`,
	})

	cls := c.Classify(context.Background(), ReplyInput{Body: "hmm ok"})

	assert.Equal(t, models.CategoryMeetingRequest, cls.Category)
	assert.True(t, cls.RequiresHumanReview)
}

func TestClassify_AICanRequestReview(t *testing.T) {
	c, fake := withFakeAI(t)
	fake.Script(KindClassify, decision.FakeResponse{
		Text: `{"category":"positive_interest","confidence":0.9,"requires_human_review":true}`,
	})

	cls := c.Classify(context.Background(), ReplyInput{Body: "hmm ok"})

	assert.Equal(t, models.CategoryPositiveInterest, cls.Category)
	assert.True(t, cls.RequiresHumanReview)
}

func TestClassify_AIFailureFallsBackToHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		response decision.FakeResponse
	}{
		{"transport", decision.FakeResponse{Err: &decision.TransportError{Kind: decision.KindOther, Err: errors.New("boom")}}},
		{"malformed", decision.FakeResponse{Text: "I think this is a question"}},
		{"unknown category", decision.FakeResponse{Text: `{"category":"spam","confidence":0.9}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := withFakeAI(t)
			fake.Script(KindClassify, tt.response)

			cls := c.Classify(context.Background(), ReplyInput{Body: "What does pricing look like?"})

			assert.Equal(t, models.CategoryQuestion, cls.Category)
			assert.Equal(t, models.SourceRules, cls.Source)
			assert.Equal(t, int64(1), c.Stats().AIFallbacks)
		})
	}
}

func TestClassificationBounds(t *testing.T) {
	c, fake := withFakeAI(t)
	fake.Script(KindClassify, decision.FakeResponse{
		Text: `{"category":"objection","confidence":7,"sentiment":{"score":-4,"label":"furious","confidence":-1},
			"objection":{"type":"price","severity":"extreme"},"entities":{"urgency":"now"}}`,
	})

	bodies := []string{
		"",
		"hmm",
		"This is too expensive and a waste of time, never email again",
		"Not interested, please remove me",
		"Sure, can we hop on a call Tuesday at 2pm?",
		"Great great great great great great great great great great",
		"Talk to Jane Smith, she handles this. Budget is $50k for Q3.",
		"Out of office until 2026-11-02",
		"We might be open to it next quarter?",
	}

	gate := DefaultReviewGate()
	for _, body := range bodies {
		cls := c.Classify(context.Background(), ReplyInput{Body: body})

		assert.True(t, models.IsValidCategory(cls.Category), body)
		assert.GreaterOrEqual(t, cls.Confidence, 0.0, body)
		assert.LessOrEqual(t, cls.Confidence, 1.0, body)
		assert.GreaterOrEqual(t, cls.Sentiment.Score, -1.0, body)
		assert.LessOrEqual(t, cls.Sentiment.Score, 1.0, body)
		assert.True(t, validSentimentLabel(cls.Sentiment.Label), body)
		assert.GreaterOrEqual(t, cls.Sentiment.Confidence, 0.0, body)
		assert.LessOrEqual(t, cls.Sentiment.Confidence, 1.0, body)
		assert.NotNil(t, cls.Entities.Competitors, body)
		assert.NotNil(t, cls.Entities.People, body)
		assert.True(t, validUrgency(cls.Entities.Urgency), body)
		assert.True(t, models.IsValidPriority(cls.SuggestedAction.Priority), body)
		assert.NotEmpty(t, cls.SuggestedAction.Action, body)
		if gate.RequiresReview(cls) {
			assert.True(t, cls.RequiresHumanReview, body)
		}
		if cls.Objection != nil {
			assert.True(t, validSeverity(cls.Objection.Severity), body)
		}
		for _, in := range cls.Intents {
			assert.GreaterOrEqual(t, in.Confidence, 0.0, body)
			assert.LessOrEqual(t, in.Confidence, 1.0, body)
		}
	}
}

func TestReviewGate(t *testing.T) {
	gate := DefaultReviewGate()
	base := models.Classification{
		Category:   models.CategoryPositiveInterest,
		Sentiment:  models.Sentiment{Label: models.SentimentPositive},
		Confidence: 0.8,
	}
	assert.False(t, gate.RequiresReview(base))

	veryNegative := base
	veryNegative.Sentiment.Label = models.SentimentVeryNegative
	assert.True(t, gate.RequiresReview(veryNegative))

	lowConfidence := base
	lowConfidence.Confidence = 0.49
	assert.True(t, gate.RequiresReview(lowConfidence))

	meeting := base
	meeting.Category = models.CategoryMeetingRequest
	meeting.Confidence = 0.99
	assert.True(t, gate.RequiresReview(meeting))

	weakObjection := base
	weakObjection.Category = models.CategoryObjection
	weakObjection.Confidence = 0.69
	assert.True(t, gate.RequiresReview(weakObjection))

	firmObjection := weakObjection
	firmObjection.Confidence = 0.7
	assert.False(t, gate.RequiresReview(firmObjection))
}

func TestSuggestAction_PositiveWithDemoIsUrgentMeeting(t *testing.T) {
	sa := SuggestAction(models.CategoryPositiveInterest, []models.Intent{{Type: IntentRequestDemo}})
	assert.Equal(t, models.ActionScheduleMeeting, sa.Action)
	assert.Equal(t, models.PriorityUrgent, sa.Priority)

	sa = SuggestAction(models.CategoryPositiveInterest, nil)
	assert.Equal(t, models.ActionSendInformation, sa.Action)

	sa = SuggestAction(models.CategoryOutOfOffice, nil)
	assert.Equal(t, models.ActionNurture, sa.Action)
	assert.Equal(t, models.PriorityLow, sa.Priority)
}
