// ABOUTME: Gmail message parsing helpers
// ABOUTME: Header extraction, sender parsing, bulk-mail filtering, body decoding, and HTML to text
package sync

import (
	"encoding/base64"
	"fmt"
	"html"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"google.golang.org/api/gmail/v1"
)

var (
	textPolicy   = bluemonday.StrictPolicy()
	blockBreaks  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>|</tr>|</h[1-6]>`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	trailingWS   = regexp.MustCompile(`[ \t]+\n`)
	automatedBox = regexp.MustCompile(`(?i)^(no-?reply|do-?not-?reply|mailer-daemon|postmaster|bounces?|notifications?)([+.\-].*)?@`)
)

// parseHeaders maps header names to values. Later duplicates are ignored.
func parseHeaders(part *gmail.MessagePart) map[string]string {
	headers := make(map[string]string)
	if part == nil {
		return headers
	}
	for _, h := range part.Headers {
		if _, ok := headers[h.Name]; !ok {
			headers[h.Name] = h.Value
		}
	}
	return headers
}

// ExtractEmailAddress splits an address header into name and lowercase email.
func ExtractEmailAddress(header string) (name, email string) {
	if header == "" {
		return "", ""
	}
	addr, err := mail.ParseAddress(header)
	if err != nil {
		// bare or malformed address
		if i := strings.LastIndex(header, "<"); i >= 0 {
			return strings.TrimSpace(strings.Trim(header[:i], `" `)), normalizeEmail(strings.Trim(header[i:], "<> "))
		}
		return "", normalizeEmail(header)
	}
	return addr.Name, normalizeEmail(addr.Address)
}

// IsAutomatedSender reports whether the address belongs to a robot mailbox.
func IsAutomatedSender(email string) bool {
	return automatedBox.MatchString(email)
}

// IsBulkMail reports whether the headers mark the message as list or bulk
// mail. Auto-replies are not bulk and are kept for classification.
func IsBulkMail(headers map[string]string) bool {
	if headers["List-Unsubscribe"] != "" || headers["List-Id"] != "" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(headers["Precedence"])) {
	case "bulk", "list", "junk":
		return true
	}
	return false
}

// ExtractBody returns the message text, preferring text/plain over HTML.
func ExtractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if plain := findPart(part, "text/plain"); plain != "" {
		return normalizeText(plain)
	}
	if htmlBody := findPart(part, "text/html"); htmlBody != "" {
		return HTMLToText(htmlBody)
	}
	return ""
}

// findPart returns the decoded data of the first part with mimeType.
func findPart(part *gmail.MessagePart, mimeType string) string {
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBase64URL(part.Body.Data); err == nil {
			return data
		}
	}
	for _, child := range part.Parts {
		if data := findPart(child, mimeType); data != "" {
			return data
		}
	}
	return ""
}

func decodeBase64URL(s string) (string, error) {
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return "", fmt.Errorf("failed to decode body: %w", err)
		}
	}
	return string(b), nil
}

// HTMLToText strips markup and keeps paragraph breaks.
func HTMLToText(s string) string {
	s = blockBreaks.ReplaceAllString(s, "$0\n")
	s = textPolicy.Sanitize(s)
	return normalizeText(html.UnescapeString(s))
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = trailingWS.ReplaceAllString(s, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// BuildReplyQuery searches the inbox for mail from others since a time.
func BuildReplyQuery(since time.Time) string {
	return fmt.Sprintf("in:inbox -from:me after:%d", since.Unix())
}

// parseEmailDate parses RFC 2822 email date
func parseEmailDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := mail.ParseDate(dateStr); err == nil {
		return t, nil
	}

	// Strip trailing timezone name like "(UTC)" or "(PST)"
	if idx := strings.Index(dateStr, " ("); idx > 0 {
		dateStr = dateStr[:idx]
	}
	formats := []string{
		time.RFC1123Z,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 MST",
		time.RFC822Z,
		time.RFC822,
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %s", dateStr)
}
