// ABOUTME: Decision model produced by the decision engine
// ABOUTME: Defines Decision, Alternative, and the decision type constants
package models

import "time"

// DecisionType selects the question the decision engine is asked.
type DecisionType string

const (
	DecisionShouldEngage     DecisionType = "should_engage"
	DecisionChannelSelection DecisionType = "channel_selection"
	DecisionMessaging        DecisionType = "messaging"
	DecisionTiming           DecisionType = "timing"
	DecisionHandoff          DecisionType = "handoff"
	DecisionDraftResponse    DecisionType = "draft_response"
)

// ActionDefer is the action every fallback decision carries.
const ActionDefer = "defer"

type Alternative struct {
	Action string  `json:"action"`
	Score  float64 `json:"score"`
}

type Decision struct {
	Action       string                 `json:"action"`
	Reasoning    string                 `json:"reasoning"`
	Confidence   float64                `json:"confidence"`
	Alternatives []Alternative          `json:"alternatives,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// IsFallback reports whether the decision was produced because the backend
// could not be reached or its output could not be parsed.
func (d Decision) IsFallback() bool {
	if d.Metadata == nil {
		return false
	}
	fallback, _ := d.Metadata["fallback"].(bool)
	return fallback
}

// MetadataString returns a string metadata value or "".
func (d Decision) MetadataString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	s, _ := d.Metadata[key].(string)
	return s
}

// DecisionRecord is the audit row written for every decision.
type DecisionRecord struct {
	ID         string       `json:"id"`
	Type       DecisionType `json:"type"`
	ProspectID string       `json:"prospect_id,omitempty"`
	Context    string       `json:"context"`
	Decision   Decision     `json:"decision"`
	LatencyMS  int64        `json:"latency_ms"`
	CreatedAt  time.Time    `json:"created_at"`
}
