// ABOUTME: Data models for outreach entities
// ABOUTME: Defines Prospect, Company, Touch, Reply, ApprovalRequest, and Handoff structs
package models

import (
	"time"

	"github.com/google/uuid"
)

type Prospect struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email,omitempty"`
	LinkedInURL        string     `json:"linkedin_url,omitempty"`
	Title              string     `json:"title,omitempty"`
	CompanyID          *uuid.UUID `json:"company_id,omitempty"`
	IntentScore        int        `json:"intent_score"`
	LastActivityAt     *time.Time `json:"last_activity_at,omitempty"`
	Status             string     `json:"status"`
	LastContactedAt    *time.Time `json:"last_contacted_at,omitempty"`
	ContactCount       int        `json:"contact_count"`
	QualificationScore int        `json:"qualification_score"`
	RelationshipStage  string     `json:"relationship_stage"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type Company struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Domain        string    `json:"domain,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	EmployeeCount int       `json:"employee_count,omitempty"`
	FundingUSD    int64     `json:"funding_usd,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Prospect status constants. Only the scheduler writes these.
const (
	ProspectNew            = "new"
	ProspectQueued         = "queued"
	ProspectResearching    = "researching"
	ProspectEngaged        = "engaged"
	ProspectReplied        = "replied"
	ProspectMeetingPending = "meeting_pending"
	ProspectNurture        = "nurture"
	ProspectUnresponsive   = "unresponsive"
	ProspectHandedOff      = "handed_off"
	ProspectDisqualified   = "disqualified"
)

// IsFollowUpEligible reports whether automated follow-up may still touch a
// prospect in the given status.
func IsFollowUpEligible(status string) bool {
	return status == ProspectEngaged
}

// IsTerminal reports whether the prospect has left automated engagement for good.
func IsTerminal(status string) bool {
	switch status {
	case ProspectHandedOff, ProspectUnresponsive, ProspectDisqualified:
		return true
	}
	return false
}

// Relationship stage constants. Only the response router writes these.
const (
	StageUnknown      = "unknown"
	StageEngaged      = "engaged"
	StageInterested   = "interested"
	StageDisqualified = "disqualified"
)

// Channel constants.
const (
	ChannelEmail    = "email"
	ChannelLinkedIn = "linkedin"
)

// IsValidChannel reports whether c names a supported outbound channel.
func IsValidChannel(c string) bool {
	return c == ChannelEmail || c == ChannelLinkedIn
}

// Touch is one outbound contact attempt in a follow-up series.
type Touch struct {
	ID          uuid.UUID `json:"id"`
	ProspectID  uuid.UUID `json:"prospect_id"`
	SeriesID    string    `json:"series_id"`
	TouchNumber int       `json:"touch_number"`
	Channel     string    `json:"channel"`
	Subject     string    `json:"subject,omitempty"`
	Body        string    `json:"body,omitempty"`
	SentAt      time.Time `json:"sent_at"`
	TaskID      string    `json:"task_id,omitempty"`
}

type Reply struct {
	ID         uuid.UUID `json:"id"`
	ProspectID uuid.UUID `json:"prospect_id"`
	Channel    string    `json:"channel"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	ExternalID string    `json:"external_id,omitempty"`
	ThreadID   string    `json:"thread_id,omitempty"`
	Status     string    `json:"status"`
	Category   string    `json:"category,omitempty"`
}

// Reply status constants.
const (
	ReplyNew       = "new"
	ReplyQueued    = "queued"
	ReplyProcessed = "processed"
)

type ApprovalRequest struct {
	ID         uuid.UUID  `json:"id"`
	ProspectID uuid.UUID  `json:"prospect_id"`
	ReplyID    *uuid.UUID `json:"reply_id,omitempty"`
	Channel    string     `json:"channel"`
	Subject    string     `json:"subject,omitempty"`
	Draft      string     `json:"draft"`
	Reasoning  string     `json:"reasoning,omitempty"`
	Confidence float64    `json:"confidence"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// Approval status constants.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
	ApprovalSent     = "sent"
)

type Handoff struct {
	ID         uuid.UUID  `json:"id"`
	ProspectID uuid.UUID  `json:"prospect_id"`
	ReplyID    *uuid.UUID `json:"reply_id,omitempty"`
	Reason     string     `json:"reason"`
	Summary    string     `json:"summary"`
	Excerpt    string     `json:"excerpt,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Handoff status constants.
const (
	HandoffOpen     = "open"
	HandoffResolved = "resolved"
)
