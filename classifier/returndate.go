// ABOUTME: Return date detection for out-of-office replies
// ABOUTME: Parses ISO, month-name, numeric, and weekday forms relative to the receive time
package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDate      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayDate = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.? (\d{1,2})(st|nd|rd|th)?\b`)
	dayMonthDate = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)? (january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	slashDate    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(/(\d{2,4}))?\b`)
	returnCue    = regexp.MustCompile(`(?i)\b(back|return(ing)?|until|through|till|from)\b`)
	weekdayCue   = regexp.MustCompile(`(?i)\b(back|return(ing)?)( on)? (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// DetectReturnDate looks for the date an out-of-office sender is back.
// Dates without a year are resolved to the next occurrence after now.
// Only dates after now are returned.
func DetectReturnDate(text string, now time.Time) (time.Time, bool) {
	if !returnCue.MatchString(text) {
		return time.Time{}, false
	}
	now = now.UTC()

	if m := isoDate.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return future(date(y, time.Month(mo), d), now)
	}

	if m := monthDayDate.FindStringSubmatch(text); m != nil {
		d, _ := strconv.Atoi(m[2])
		return nextOccurrence(monthNames[strings.ToLower(m[1])], d, now)
	}

	if m := dayMonthDate.FindStringSubmatch(text); m != nil {
		d, _ := strconv.Atoi(m[1])
		return nextOccurrence(monthNames[strings.ToLower(m[3])], d, now)
	}

	if m := slashDate.FindStringSubmatch(text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		if mo < 1 || mo > 12 || d < 1 || d > 31 {
			return time.Time{}, false
		}
		if m[4] != "" {
			y, _ := strconv.Atoi(m[4])
			if y < 100 {
				y += 2000
			}
			return future(date(y, time.Month(mo), d), now)
		}
		return nextOccurrence(time.Month(mo), d, now)
	}

	if m := weekdayCue.FindStringSubmatch(text); m != nil {
		wd := weekdays[strings.ToLower(m[4])]
		days := (int(wd) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		d := now.AddDate(0, 0, days)
		return date(d.Year(), d.Month(), d.Day()), true
	}

	return time.Time{}, false
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func nextOccurrence(m time.Month, d int, now time.Time) (time.Time, bool) {
	if d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := date(now.Year(), m, d)
	if !t.After(now) {
		t = date(now.Year()+1, m, d)
	}
	return t, true
}

func future(t, now time.Time) (time.Time, bool) {
	if !t.After(now) {
		return time.Time{}, false
	}
	return t, true
}
