// ABOUTME: Normalizes reply bodies before classification
// ABOUTME: Strips quoted history, forwarded headers, and signatures from inbound email text
package classifier

import (
	"regexp"
	"strings"
)

var (
	// "On Tue, Mar 3, 2026 at 9:14 AM Jane <jane@x.com> wrote:"
	onWroteLine    = regexp.MustCompile(`(?i)^\s*on\s.+wrote:\s*$`)
	originalHeader = regexp.MustCompile(`(?i)^\s*-{2,}\s*(original message|forwarded message)\s*-{2,}`)
	fromHeader     = regexp.MustCompile(`(?i)^\s*from:\s`)
	signatureStart = regexp.MustCompile(`(?i)^\s*(--\s*|sent from my \w+.*)$`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// CleanBody removes the parts of an email reply that were not written in
// this message: quoted lines, the quoted thread below an attribution line,
// and the signature block.
func CleanBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if onWroteLine.MatchString(line) || originalHeader.MatchString(line) || fromHeader.MatchString(line) {
			break
		}
		if signatureStart.MatchString(line) {
			break
		}
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}

	out := strings.Join(kept, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
