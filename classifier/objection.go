// ABOUTME: Objection analysis for replies classified as objections
// ABOUTME: Identifies the objection type, its severity, and the sentence that states it
package classifier

import (
	"regexp"
	"strings"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// Objection types.
const (
	ObjectionPrice         = "price"
	ObjectionTiming        = "timing"
	ObjectionCompetition   = "competition"
	ObjectionNoNeed        = "no_need"
	ObjectionDecisionMaker = "decision_maker"
	ObjectionOther         = "other"
)

var objectionPatterns = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{ObjectionPrice, regexp.MustCompile(`(?i)\b(expensive|budget|cost|afford|pricey|price)\b`)},
	{ObjectionTiming, regexp.MustCompile(`(?i)\b(right time|timing|next quarter|next year|too busy|bandwidth|later)\b`)},
	{ObjectionCompetition, regexp.MustCompile(`(?i)\b(already (use|using|have|work with)|happy with (our|the) current|competitor|locked in|under contract)\b`)},
	{ObjectionNoNeed, regexp.MustCompile(`(?i)\b(no need|(don'?t|do not) need|not a priority|not relevant|not needed)\b`)},
	{ObjectionDecisionMaker, regexp.MustCompile(`(?i)\b(not my decision|decision[- ]maker|my (boss|manager)|procurement|committee|check with)\b`)},
}

var (
	hardSeverity = regexp.MustCompile(`(?i)\b(never|absolutely not|under no circumstances|definitely not|no way)\b`)
	softSeverity = regexp.MustCompile(`(?i)\b(maybe|might|perhaps|possibly|not sure|for now|at the moment)\b`)
	sentenceEnd  = regexp.MustCompile(`[.!?\n]+`)
)

// AnalyzeObjection extracts the objection stated in text. It always returns
// an objection; the type is "other" when no specific kind is recognized.
func AnalyzeObjection(text string) *models.Objection {
	obj := &models.Objection{Type: ObjectionOther, Severity: objectionSeverity(text)}

	for _, op := range objectionPatterns {
		loc := op.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		obj.Type = op.kind
		obj.SpecificConcern = sentenceAround(text, loc[0])
		break
	}

	if obj.SpecificConcern == "" {
		obj.SpecificConcern = firstSentence(text)
	}
	return obj
}

func objectionSeverity(text string) string {
	switch {
	case hardSeverity.MatchString(text):
		return models.SeverityHard
	case softSeverity.MatchString(text):
		return models.SeveritySoft
	}
	return models.SeverityMedium
}

// sentenceAround returns the sentence containing byte offset pos.
func sentenceAround(text string, pos int) string {
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if loc[1] <= pos {
			start = loc[1]
			continue
		}
		return strings.TrimSpace(text[start:loc[1]])
	}
	return strings.TrimSpace(text[start:])
}

func firstSentence(text string) string {
	if loc := sentenceEnd.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[1]])
	}
	return strings.TrimSpace(text)
}
