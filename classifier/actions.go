// ABOUTME: Suggested action table and human review gate
// ABOUTME: Derives the next action and its priority from a classification, and decides when a human must look
package classifier

import "github.com/DoniaKassem/AIRevenueOrc-sub002/models"

type actionRule struct {
	action    string
	priority  string
	reasoning string
}

var actionTable = map[models.Category]actionRule{
	models.CategoryPositiveInterest: {models.ActionSendInformation, models.PriorityHigh, "prospect expressed interest"},
	models.CategoryMeetingRequest:   {models.ActionScheduleMeeting, models.PriorityUrgent, "prospect asked to meet"},
	models.CategoryObjection:        {models.ActionHandleObjection, models.PriorityHigh, "prospect raised an objection"},
	models.CategoryQuestion:         {models.ActionAnswerQuestion, models.PriorityMedium, "prospect asked a question"},
	models.CategoryOutOfOffice:      {models.ActionNurture, models.PriorityLow, "recipient is away; resume after return"},
	models.CategoryAutoReply:        {models.ActionNurture, models.PriorityLow, "automated reply carries no intent"},
	models.CategoryNotInterested:    {models.ActionRemoveFromSequence, models.PriorityLow, "prospect declined"},
	models.CategoryUnsubscribe:      {models.ActionSuppress, models.PriorityHigh, "prospect asked to stop receiving messages"},
	models.CategoryWrongPerson:      {models.ActionFindRightContact, models.PriorityMedium, "recipient is not the right contact"},
	models.CategoryReferral:         {models.ActionFollowReferral, models.PriorityHigh, "recipient referred us to someone else"},
	models.CategoryUnclear:          {models.ActionEscalateToHuman, models.PriorityMedium, "intent could not be determined"},
}

// SuggestAction returns the deterministic next action for a category.
// Positive interest that asks for a meeting or demo becomes an urgent
// meeting request.
func SuggestAction(category models.Category, intents []models.Intent) models.SuggestedAction {
	r, ok := actionTable[category]
	if !ok {
		r = actionTable[models.CategoryUnclear]
	}

	if category == models.CategoryPositiveInterest && hasAnyIntent(intents, IntentScheduleMeeting, IntentRequestDemo) {
		r = actionRule{models.ActionScheduleMeeting, models.PriorityUrgent, "prospect is interested and wants to meet"}
	}

	return models.SuggestedAction{
		Action:    r.action,
		Reasoning: r.reasoning,
		Priority:  r.priority,
	}
}

func hasAnyIntent(intents []models.Intent, types ...string) bool {
	for _, in := range intents {
		for _, t := range types {
			if in.Type == t {
				return true
			}
		}
	}
	return false
}

// ReviewGate holds the thresholds of the human review gate.
type ReviewGate struct {
	MinConfidence          float64
	MinObjectionConfidence float64
}

// DefaultReviewGate returns the standard thresholds.
func DefaultReviewGate() ReviewGate {
	return ReviewGate{MinConfidence: 0.5, MinObjectionConfidence: 0.7}
}

// RequiresReview reports whether a human must review the classification
// before anything is sent.
func (g ReviewGate) RequiresReview(c models.Classification) bool {
	switch {
	case c.Sentiment.Label == models.SentimentVeryNegative:
		return true
	case c.Confidence < g.MinConfidence:
		return true
	case c.Category == models.CategoryMeetingRequest:
		return true
	case c.Category == models.CategoryObjection && c.Confidence < g.MinObjectionConfidence:
		return true
	}
	return false
}
