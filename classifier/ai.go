// ABOUTME: AI stage of the reply classifier
// ABOUTME: Builds the classification prompt and normalizes the model's JSON into a valid Classification
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/decision"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// KindClassify is the request kind hint of classification calls.
const KindClassify = "classify"

// maxHistory bounds how many earlier thread messages go into the prompt.
const maxHistory = 3

const classifySystemPrompt = `You classify replies to B2B sales outreach.
Categories: positive_interest, objection, meeting_request, out_of_office, not_interested,
unsubscribe, wrong_person, referral, question, auto_reply, unclear.
Respond with a single JSON object and nothing else:
{"category": "...",
 "sentiment": {"score": -1..1, "label": "very_positive|positive|neutral|negative|very_negative", "confidence": 0..1},
 "intents": [{"type": "...", "confidence": 0..1, "evidence": "..."}],
 "objection": {"type": "price|timing|competition|no_need|decision_maker|other", "severity": "soft|medium|hard", "specific_concern": "..."},
 "entities": {"competitors": [], "timeline": "", "budget": "", "people": [], "urgency": "high|medium|low"},
 "suggested_action": {"action": "...", "reasoning": "...", "priority": "low|medium|high|urgent", "suggested_response": "..."},
 "requires_human_review": false,
 "confidence": 0..1}
Omit "objection" unless the category is objection.`

type aiClassification struct {
	Category            string                  `json:"category"`
	Sentiment           *models.Sentiment       `json:"sentiment"`
	Intents             []models.Intent         `json:"intents"`
	Objection           *models.Objection       `json:"objection"`
	Entities            *models.Entities        `json:"entities"`
	SuggestedAction     *models.SuggestedAction `json:"suggested_action"`
	RequiresHumanReview bool                    `json:"requires_human_review"`
	Confidence          *float64                `json:"confidence"`
}

func (c *Classifier) classifyWithAI(ctx context.Context, in ReplyInput, esc NeedsEscalation) (models.Classification, error) {
	resp, err := c.ai.Complete(ctx, decision.Request{
		Prompt:       buildClassifyPrompt(in, esc),
		SystemPrompt: classifySystemPrompt,
		Hints: map[string]string{
			decision.HintKind:   KindClassify,
			decision.HintFormat: decision.FormatJSON,
		},
	})
	if err != nil {
		return models.Classification{}, fmt.Errorf("failed to call AI backend: %w", err)
	}
	return ParseAIClassification(resp.Text, esc.Heuristic, esc.Cleaned, c.cfg.Gate)
}

func buildClassifyPrompt(in ReplyInput, esc NeedsEscalation) string {
	var b strings.Builder
	history := in.History
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	if len(history) > 0 {
		b.WriteString("Earlier messages in the thread:\n")
		for i, h := range history {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(h))
		}
		b.WriteString("\n")
	}
	if in.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", in.Subject)
	}
	fmt.Fprintf(&b, "Reply:\n%s\n\n", esc.Cleaned)
	fmt.Fprintf(&b, "Pattern rules suggested %q with confidence %.2f.\n",
		esc.Heuristic.Category, esc.Heuristic.Confidence)
	return b.String()
}

// ParseAIClassification turns model output into a valid classification.
// Missing or out-of-range fields are filled from the heuristic or clamped.
// The model can ask for human review but cannot waive it.
func ParseAIClassification(text string, heuristic models.Classification, cleaned string, gate ReviewGate) (models.Classification, error) {
	raw, err := decision.ExtractJSON(text)
	if err != nil {
		return models.Classification{}, err
	}

	var ai aiClassification
	if err := json.Unmarshal([]byte(raw), &ai); err != nil {
		return models.Classification{}, fmt.Errorf("failed to decode classification: %w", err)
	}

	category := models.Category(strings.ToLower(strings.TrimSpace(ai.Category)))
	if !models.IsValidCategory(category) {
		return models.Classification{}, fmt.Errorf("unknown category %q", ai.Category)
	}

	cls := models.Classification{
		Category:   category,
		Confidence: 0.5,
		Source:     models.SourceAI,
	}
	if ai.Confidence != nil {
		cls.Confidence = clamp(*ai.Confidence, 0, 1)
	}

	cls.Sentiment = heuristic.Sentiment
	if ai.Sentiment != nil {
		s := *ai.Sentiment
		s.Score = clamp(s.Score, -1, 1)
		if !validSentimentLabel(s.Label) {
			s.Label = SentimentLabel(s.Score)
		}
		s.Confidence = clamp(s.Confidence, 0, 1)
		cls.Sentiment = s
	}

	cls.Intents = heuristic.Intents
	if ai.Intents != nil {
		cls.Intents = make([]models.Intent, 0, len(ai.Intents))
		for _, in := range ai.Intents {
			if strings.TrimSpace(in.Type) == "" {
				continue
			}
			in.Confidence = clamp(in.Confidence, 0, 1)
			cls.Intents = append(cls.Intents, in)
		}
	}

	if category == models.CategoryObjection {
		if ai.Objection != nil {
			obj := *ai.Objection
			if obj.Type == "" {
				obj.Type = ObjectionOther
			}
			if !validSeverity(obj.Severity) {
				obj.Severity = models.SeverityMedium
			}
			cls.Objection = &obj
		} else {
			cls.Objection = AnalyzeObjection(cleaned)
		}
	}

	cls.Entities = heuristic.Entities
	if ai.Entities != nil {
		ent := *ai.Entities
		if ent.Competitors == nil {
			ent.Competitors = []string{}
		}
		if ent.People == nil {
			ent.People = []string{}
		}
		if !validUrgency(ent.Urgency) {
			ent.Urgency = heuristic.Entities.Urgency
		}
		cls.Entities = ent
	}

	cls.SuggestedAction = SuggestAction(category, cls.Intents)
	if sa := ai.SuggestedAction; sa != nil {
		if sa.Action != "" {
			cls.SuggestedAction.Action = sa.Action
		}
		if models.IsValidPriority(sa.Priority) {
			cls.SuggestedAction.Priority = sa.Priority
		}
		if sa.Reasoning != "" {
			cls.SuggestedAction.Reasoning = sa.Reasoning
		}
		cls.SuggestedAction.SuggestedResponse = strings.TrimSpace(sa.SuggestedResponse)
	}

	cls.RequiresHumanReview = gate.RequiresReview(cls) || ai.RequiresHumanReview
	return cls, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func validSentimentLabel(l string) bool {
	switch l {
	case models.SentimentVeryPositive, models.SentimentPositive, models.SentimentNeutral,
		models.SentimentNegative, models.SentimentVeryNegative:
		return true
	}
	return false
}

func validSeverity(s string) bool {
	return s == models.SeveritySoft || s == models.SeverityMedium || s == models.SeverityHard
}

func validUrgency(u string) bool {
	return u == models.UrgencyHigh || u == models.UrgencyMedium || u == models.UrgencyLow
}
