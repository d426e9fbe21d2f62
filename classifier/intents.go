// ABOUTME: Intent extraction from reply text
// ABOUTME: Detects meeting, demo, pricing, information, referral, timing, and opt-out intents with evidence
package classifier

import (
	"regexp"
	"strings"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// Intent types.
const (
	IntentScheduleMeeting = "schedule_meeting"
	IntentRequestDemo     = "request_demo"
	IntentRequestPricing  = "request_pricing"
	IntentRequestInfo     = "request_info"
	IntentReferral        = "referral"
	IntentDeferTiming     = "defer_timing"
	IntentOptOut          = "opt_out"
)

const patternIntentConfidence = 0.7

var intentPatterns = []struct {
	intent  string
	pattern *regexp.Regexp
}{
	{IntentScheduleMeeting, regexp.MustCompile(`(?i)\b(call|meeting|meet|zoom|calendar|invite|chat)\b`)},
	{IntentRequestDemo, regexp.MustCompile(`(?i)\b(demo|walk ?through|see it in action|trial)\b`)},
	{IntentRequestPricing, regexp.MustCompile(`(?i)\b(pricing|price|cost|quote|how much|plans?)\b`)},
	{IntentRequestInfo, regexp.MustCompile(`(?i)\b(more info(rmation)?|send (me |over )?(some |more )?(details|info|materials)|deck|case stud(y|ies)|one[- ]pager|brochure)\b`)},
	{IntentReferral, regexp.MustCompile(`(?i)\b(reach out to|talk to|speak with|contact|loop(ing)? in|cc'?(d|ing))\b`)},
	{IntentDeferTiming, regexp.MustCompile(`(?i)\b(next (quarter|year|month)|circle back|reach out (again )?in|later this year|not right now|check back|revisit)\b`)},
	{IntentOptOut, regexp.MustCompile(`(?i)\b(unsubscribe|remove me|stop (emailing|contacting|sending)|opt(-| )?out|take me off)\b`)},
}

// ExtractIntents returns every intent whose pattern matches, with the
// matched phrase as evidence.
func ExtractIntents(text string) []models.Intent {
	intents := make([]models.Intent, 0, 2)
	for _, ip := range intentPatterns {
		if m := ip.pattern.FindString(text); m != "" {
			intents = append(intents, models.Intent{
				Type:       ip.intent,
				Confidence: patternIntentConfidence,
				Evidence:   strings.TrimSpace(m),
			})
		}
	}
	return intents
}
