// ABOUTME: Entity extraction from reply text
// ABOUTME: Finds competitors, timelines, budgets, named people, and urgency
package classifier

import (
	"regexp"
	"strings"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

// competitors maps a lowercase match onto the canonical vendor name.
var competitors = map[string]string{
	"salesforce": "Salesforce",
	"hubspot":    "HubSpot",
	"salesloft":  "Salesloft",
	"apollo":     "Apollo",
	"zoominfo":   "ZoomInfo",
	"gong":       "Gong",
	"pipedrive":  "Pipedrive",
	"marketo":    "Marketo",
	"pardot":     "Pardot",
	"clari":      "Clari",
	"lusha":      "Lusha",
	"seamless":   "Seamless.AI",
}

var (
	competitorPattern = regexp.MustCompile(`(?i)\b(salesforce|hubspot|salesloft|apollo|zoominfo|gong|pipedrive|marketo|pardot|clari|lusha|seamless)\b`)

	timelinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(next|this) (week|month|quarter|year)\b`),
		regexp.MustCompile(`(?i)\b(end of|by the end of|by) (the )?(week|month|quarter|year)\b`),
		regexp.MustCompile(`(?i)\bin \d+ (days|weeks|months)\b`),
		regexp.MustCompile(`\bQ[1-4]( \d{4})?\b`),
		regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)( (morning|afternoon|evening))?( at \d{1,2}(:\d{2})? ?(am|pm)?)?`),
		regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december) \d{1,2}(st|nd|rd|th)?\b`),
		regexp.MustCompile(`(?i)\b(tomorrow|today)\b`),
	}

	budgetPattern = regexp.MustCompile(`(?i)\$ ?\d[\d,]*(\.\d+)? ?(k|m|mm|million|thousand)?\b|\b\d[\d,]*(\.\d+)? ?(k|million|thousand)? (dollars|usd)\b`)

	personPattern = regexp.MustCompile(`\b([A-Z][a-z]+) ([A-Z][a-z]+)\b`)

	urgentPattern = regexp.MustCompile(`(?i)\b(asap|urgent(ly)?|immediately|right away|today|this week|as soon as possible)\b`)
	soonPattern   = regexp.MustCompile(`(?i)\b(soon|next week|this month|shortly|in the coming weeks)\b`)
)

// notNames are capitalized words that start sentences or name calendar
// terms rather than people.
var notNames = map[string]bool{
	"Hi": true, "Hello": true, "Hey": true, "Dear": true, "Thanks": true, "Thank": true,
	"Best": true, "Regards": true, "Kind": true, "Cheers": true, "Sure": true, "Yes": true,
	"No": true, "Please": true, "Sorry": true, "Unfortunately": true, "The": true, "We": true,
	"Our": true, "My": true, "Let": true, "Happy": true, "Sounds": true, "Great": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true, "Friday": true,
	"Saturday": true, "Sunday": true, "January": true, "February": true, "March": true,
	"April": true, "May": true, "June": true, "July": true, "August": true, "September": true,
	"October": true, "November": true, "December": true, "Out": true, "Office": true,
	"Not": true, "Looking": true, "Good": true, "Sent": true, "Warm": true, "Many": true,
}

// ExtractEntities pulls structured entities out of text. Slices are never nil.
func ExtractEntities(text string) models.Entities {
	ent := models.Entities{
		Competitors: []string{},
		People:      []string{},
		Urgency:     detectUrgency(text),
	}

	seen := make(map[string]bool)
	for _, m := range competitorPattern.FindAllString(text, -1) {
		name := competitors[strings.ToLower(m)]
		if name != "" && !seen[name] {
			seen[name] = true
			ent.Competitors = append(ent.Competitors, name)
		}
	}

	for _, p := range timelinePatterns {
		if m := p.FindString(text); m != "" {
			ent.Timeline = strings.TrimSpace(m)
			break
		}
	}

	if m := budgetPattern.FindString(text); m != "" {
		ent.Budget = strings.TrimSpace(m)
	}

	seenPeople := make(map[string]bool)
	for _, m := range personPattern.FindAllStringSubmatch(text, -1) {
		if notNames[m[1]] || notNames[m[2]] {
			continue
		}
		if _, isVendor := competitors[strings.ToLower(m[1])]; isVendor {
			continue
		}
		if !seenPeople[m[0]] {
			seenPeople[m[0]] = true
			ent.People = append(ent.People, m[0])
		}
	}

	return ent
}

func detectUrgency(text string) string {
	switch {
	case urgentPattern.MatchString(text):
		return models.UrgencyHigh
	case soonPattern.MatchString(text):
		return models.UrgencyMedium
	}
	return models.UrgencyLow
}
