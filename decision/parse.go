// ABOUTME: Parsing of backend output into decisions
// ABOUTME: Extracts the first balanced JSON object from free text and validates decision fields
package decision

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

var ErrNoJSON = errors.New("no JSON object in response")

// ExtractJSON returns the first balanced {...} object in s that is valid
// JSON. Braces inside string literals are ignored.
func ExtractJSON(s string) (string, error) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		end := matchingBrace(s, start)
		if end < 0 {
			continue
		}
		if candidate := s[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrNoJSON
}

// matchingBrace returns the index of the brace closing the one at start, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// allowedActions restricts the action vocabulary per decision type. Types
// not listed accept any non-empty action.
var allowedActions = map[models.DecisionType][]string{
	models.DecisionShouldEngage:     {"engage", "skip", models.ActionDefer},
	models.DecisionChannelSelection: {models.ChannelEmail, models.ChannelLinkedIn},
}

type rawDecision struct {
	Action       string                 `json:"action"`
	Reasoning    string                 `json:"reasoning"`
	Confidence   *float64               `json:"confidence"`
	Alternatives []models.Alternative   `json:"alternatives"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// ParseDecision turns backend text into a validated decision.
func ParseDecision(t models.DecisionType, text string) (models.Decision, error) {
	obj, err := ExtractJSON(text)
	if err != nil {
		return models.Decision{}, err
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return models.Decision{}, fmt.Errorf("failed to decode decision: %w", err)
	}

	action := strings.ToLower(strings.TrimSpace(raw.Action))
	if action == "" {
		return models.Decision{}, fmt.Errorf("decision has no action")
	}
	if allowed, ok := allowedActions[t]; ok && !contains(allowed, action) {
		return models.Decision{}, fmt.Errorf("action %q not valid for %s", action, t)
	}

	confidence := 0.5
	if raw.Confidence != nil {
		confidence = clamp01(*raw.Confidence)
	}

	alts := make([]models.Alternative, 0, len(raw.Alternatives))
	for _, a := range raw.Alternatives {
		if a.Action == "" {
			continue
		}
		alts = append(alts, models.Alternative{Action: strings.ToLower(a.Action), Score: clamp01(a.Score)})
	}
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Score > alts[j].Score })

	return models.Decision{
		Action:       action,
		Reasoning:    raw.Reasoning,
		Confidence:   confidence,
		Alternatives: alts,
		Metadata:     raw.Metadata,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
