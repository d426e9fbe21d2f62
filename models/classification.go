// ABOUTME: Reply classification and routing decision models
// ABOUTME: Defines Classification, its nested sentiment/intent/objection/entity types, and RoutingDecision
package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the coarse classification of an inbound reply.
type Category string

const (
	CategoryPositiveInterest Category = "positive_interest"
	CategoryObjection        Category = "objection"
	CategoryMeetingRequest   Category = "meeting_request"
	CategoryOutOfOffice      Category = "out_of_office"
	CategoryNotInterested    Category = "not_interested"
	CategoryUnsubscribe      Category = "unsubscribe"
	CategoryWrongPerson      Category = "wrong_person"
	CategoryReferral         Category = "referral"
	CategoryQuestion         Category = "question"
	CategoryAutoReply        Category = "auto_reply"
	CategoryUnclear          Category = "unclear"
)

// AllCategories lists every category in fast-path evaluation order.
var AllCategories = []Category{
	CategoryOutOfOffice,
	CategoryAutoReply,
	CategoryUnsubscribe,
	CategoryNotInterested,
	CategoryWrongPerson,
	CategoryReferral,
	CategoryMeetingRequest,
	CategoryObjection,
	CategoryPositiveInterest,
	CategoryQuestion,
	CategoryUnclear,
}

// IsValidCategory reports whether c is one of the known categories.
func IsValidCategory(c Category) bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsAutomated reports whether the reply was machine-generated rather than
// written by the prospect.
func (c Category) IsAutomated() bool {
	return c == CategoryOutOfOffice || c == CategoryAutoReply
}

// Sentiment labels.
const (
	SentimentVeryPositive = "very_positive"
	SentimentPositive     = "positive"
	SentimentNeutral      = "neutral"
	SentimentNegative     = "negative"
	SentimentVeryNegative = "very_negative"
)

// Priority levels for suggested actions.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// IsValidPriority reports whether p is one of the four priority levels.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Objection severities.
const (
	SeveritySoft   = "soft"
	SeverityMedium = "medium"
	SeverityHard   = "hard"
)

// Urgency buckets.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// Suggested actions.
const (
	ActionScheduleMeeting    = "schedule_meeting"
	ActionSendInformation    = "send_information"
	ActionHandleObjection    = "handle_objection"
	ActionAnswerQuestion     = "answer_question"
	ActionNurture            = "nurture"
	ActionRemoveFromSequence = "remove_from_sequence"
	ActionSuppress           = "suppress"
	ActionFindRightContact   = "find_right_contact"
	ActionFollowReferral     = "follow_referral"
	ActionEscalateToHuman    = "escalate_to_human"
)

type Sentiment struct {
	Score      float64 `json:"score"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type Intent struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}

type Objection struct {
	Type            string `json:"type"`
	Severity        string `json:"severity"`
	SpecificConcern string `json:"specific_concern,omitempty"`
}

type Entities struct {
	Competitors []string `json:"competitors"`
	Timeline    string   `json:"timeline,omitempty"`
	Budget      string   `json:"budget,omitempty"`
	People      []string `json:"people"`
	Urgency     string   `json:"urgency"`
}

type SuggestedAction struct {
	Action            string `json:"action"`
	Reasoning         string `json:"reasoning"`
	Priority          string `json:"priority"`
	SuggestedResponse string `json:"suggested_response,omitempty"`
}

// Classification sources.
const (
	SourceRules = "rules"
	SourceAI    = "ai"
)

type Classification struct {
	Category            Category        `json:"category"`
	Sentiment           Sentiment       `json:"sentiment"`
	Intents             []Intent        `json:"intents"`
	Objection           *Objection      `json:"objection,omitempty"`
	Entities            Entities        `json:"entities"`
	SuggestedAction     SuggestedAction `json:"suggested_action"`
	RequiresHumanReview bool            `json:"requires_human_review"`
	Confidence          float64         `json:"confidence"`
	Source              string          `json:"source"`
}

// HasIntent reports whether an intent of the given type was extracted.
func (c Classification) HasIntent(intentType string) bool {
	for _, i := range c.Intents {
		if i.Type == intentType {
			return true
		}
	}
	return false
}

// Route targets.
const (
	RouteObjectionHandler = "objection_handler"
	RouteMeetingScheduler = "meeting_scheduler"
	RouteHuman            = "human"
	RouteAutoResponder    = "auto_responder"
	RouteSuppression      = "suppression"
)

type RoutingDecision struct {
	ID                  uuid.UUID  `json:"id"`
	ProspectID          uuid.UUID  `json:"prospect_id"`
	ReplyID             uuid.UUID  `json:"reply_id"`
	Category            Category   `json:"category"`
	RoutedTo            string     `json:"routed_to"`
	Reasoning           string     `json:"reasoning"`
	Confidence          float64    `json:"confidence"`
	ActionTaken         string     `json:"action_taken"`
	ResponseSent        bool       `json:"response_sent"`
	RequiresHumanReview bool       `json:"requires_human_review"`
	MeetingScheduled    *bool      `json:"meeting_scheduled,omitempty"`
	ObjectionHandled    *bool      `json:"objection_handled,omitempty"`
	EscalatedToHuman    *bool      `json:"escalated_to_human,omitempty"`
	ApprovalID          *uuid.UUID `json:"approval_id,omitempty"`
	HandoffID           *uuid.UUID `json:"handoff_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
