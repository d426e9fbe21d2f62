// ABOUTME: Ordered pattern rules for the fast classification path
// ABOUTME: Maps reply text and subject onto a category with a fixed rule confidence
package classifier

import (
	"regexp"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

type rule struct {
	category   models.Category
	confidence float64
	body       *regexp.Regexp
	subject    *regexp.Regexp
}

// Rules run in order and the first match wins. Machine-generated replies
// and opt-outs come first so that words like "interested" in an auto-reply
// never read as interest.
var rules = []rule{
	{
		category:   models.CategoryOutOfOffice,
		confidence: 0.95,
		body:       regexp.MustCompile(`(?i)\bout of (the )?office\b|\booo\b|\bon (annual |parental |maternity |paternity |medical )?leave\b|\bon (vacation|holiday)\b|\baway from (the office|my desk)\b|\blimited access to (e-?mail|my email)\b|\bi will be back\b|\bback in the office\b`),
		subject:    regexp.MustCompile(`(?i)out of (the )?office|\booo\b`),
	},
	{
		category:   models.CategoryAutoReply,
		confidence: 0.90,
		body:       regexp.MustCompile(`(?i)\bauto(matic|mated)?[- ]?(reply|response)\b|\bthis is an automated\b|\bdo not reply to this\b|\bno-?reply\b|\byour (message|email|request) has been received\b|\bwe have received your\b|\bticket (number|#|id)\b`),
		subject:    regexp.MustCompile(`(?i)^\s*(automatic reply|auto[- ]?reply|autoreply|delivery status notification)`),
	},
	{
		category:   models.CategoryUnsubscribe,
		confidence: 0.92,
		body:       regexp.MustCompile(`(?i)\bunsubscribe\b|\bremove me from\b|\btake me off\b|\bstop (emailing|e-mailing|sending|contacting|messaging)\b|\bopt(-| )?out\b|\b(don'?t|do not) (email|e-mail|contact|message) me\b`),
	},
	{
		category:   models.CategoryNotInterested,
		confidence: 0.90,
		body:       regexp.MustCompile(`(?i)\bnot (really |that |very |at all )?interested\b|\bno,? thanks?( you)?\b|\bnot a (good )?fit\b|\bwe('re| are) all set\b|\bnot for us\b|\bpass on this\b|\bno interest\b`),
	},
	{
		category:   models.CategoryWrongPerson,
		confidence: 0.85,
		body:       regexp.MustCompile(`(?i)\bwrong (person|contact)\b|\bnot the (right|correct|best) (person|contact)\b|\bno longer (work|with|at)\b|\bleft the company\b|\bnot (responsible|in charge) (for|of)\b|\b(doesn'?t|does not) work here\b|\bnot my (area|department)\b`),
	},
	{
		category:   models.CategoryReferral,
		confidence: 0.80,
		body:       regexp.MustCompile(`(?i)\b(reach out to|get in touch with|talk to|speak (to|with)|contact|loop(ing)? in|cc'?(d|ing))\b.{0,40}\b(colleague|team|head of|manager|director|vp|who (handles|owns|runs|manages))\b|\bthe (right|best) person (is|would be)\b|\b(he|she|they) (handles|owns|manages|runs) (this|that|our)\b`),
	},
	{
		category:   models.CategoryMeetingRequest,
		confidence: 0.88,
		body:       regexp.MustCompile(`(?i)\b(hop|jump|get) on a (quick )?(call|zoom|meeting|chat)\b|\b(schedule|set up|setup|book|arrange) (a )?(quick )?(call|meeting|time|demo|chat)\b|\b(can|could|shall) we (meet|talk|chat|connect|speak)\b|\blet'?s (meet|talk|chat|connect)\b|\bcalendly\b|\bsend (me )?(a|an) (calendar )?invite\b|\bwhat time works\b|\b(mon|tues|wednes|thurs|fri)day at \d{1,2}`),
	},
	{
		category:   models.CategoryObjection,
		confidence: 0.70,
		body:       regexp.MustCompile(`(?i)\btoo expensive\b|\bno budget\b|\b(out of|over) (our )?budget\b|\bcan'?t afford\b|\balready (use|using|have|work with)\b|\bhappy with (our|the) current\b|\bnot the right time\b|\bbad timing\b|\bnot a priority\b|\bno need\b|\b(don'?t|do not) need\b|\bnot the decision[- ]maker\b|\bnot my decision\b|\bcheck with my (boss|manager|team)\b|\blocked in\b|\bunder contract\b`),
	},
	{
		category:   models.CategoryPositiveInterest,
		confidence: 0.75,
		body:       regexp.MustCompile(`(?i)\binterested\b|\bsounds (good|great|interesting)\b|\btell me more\b|\b(love|like) to (learn|hear|see|know)\b|\bkeen\b|\bcurious\b|\bopen to\b|\byes,? please\b|\bsend (it|them|me) (over|more)\b`),
	},
	{
		category:   models.CategoryQuestion,
		confidence: 0.65,
		body:       regexp.MustCompile(`(?i)\?|^\s*(how|what|when|where|why|who|which|can you|could you|do you|does it|is there)\b`),
	},
}

// unclearConfidence is assigned when no rule matches.
const unclearConfidence = 0.30

// matchCategory returns the first matching rule's category and confidence.
func matchCategory(subject, body string) (models.Category, float64) {
	for _, r := range rules {
		if r.subject != nil && subject != "" && r.subject.MatchString(subject) {
			return r.category, r.confidence
		}
		if r.body.MatchString(body) {
			return r.category, r.confidence
		}
	}
	return models.CategoryUnclear, unclearConfidence
}
