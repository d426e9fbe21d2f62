package sync

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/gmail/v1"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractEmailAddress(t *testing.T) {
	tests := []struct {
		header    string
		wantName  string
		wantEmail string
	}{
		{"Jane Doe <Jane@Example.com>", "Jane Doe", "jane@example.com"},
		{"jane@example.com", "", "jane@example.com"},
		{`"Doe, Jane" <jane@example.com>`, "Doe, Jane", "jane@example.com"},
		{"Jane Doe <jane@example.com", "Jane Doe", "jane@example.com"},
		{"", "", ""},
	}

	for _, tt := range tests {
		name, email := ExtractEmailAddress(tt.header)
		assert.Equal(t, tt.wantName, name, tt.header)
		assert.Equal(t, tt.wantEmail, email, tt.header)
	}
}

func TestIsAutomatedSender(t *testing.T) {
	assert.True(t, IsAutomatedSender("noreply@example.com"))
	assert.True(t, IsAutomatedSender("no-reply@example.com"))
	assert.True(t, IsAutomatedSender("mailer-daemon@googlemail.com"))
	assert.True(t, IsAutomatedSender("notifications+abc@github.com"))
	assert.False(t, IsAutomatedSender("jane@example.com"))
	assert.False(t, IsAutomatedSender("replyguy@example.com"))
}

func TestIsBulkMail(t *testing.T) {
	assert.True(t, IsBulkMail(map[string]string{"List-Unsubscribe": "<mailto:x@example.com>"}))
	assert.True(t, IsBulkMail(map[string]string{"Precedence": "Bulk"}))
	assert.False(t, IsBulkMail(map[string]string{"Auto-Submitted": "auto-replied"}))
	assert.False(t, IsBulkMail(map[string]string{}))
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>HTML version</p>")}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("Plain version\r\n")}},
		},
	}
	assert.Equal(t, "Plain version", ExtractBody(part))
}

func TestExtractBodyFallsBackToHTML(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<div>Thanks &amp; regards</div><p>Let's <b>talk</b> Tuesday</p><script>alert(1)</script>")}},
				},
			},
		},
	}
	assert.Equal(t, "Thanks & regards\nLet's talk Tuesday", ExtractBody(part))
}

func TestExtractBodyUnpaddedBase64(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("ok?"))},
	}
	assert.Equal(t, "ok?", ExtractBody(part))
	assert.Equal(t, "", ExtractBody(nil))
}

func TestHTMLToTextCollapsesBlankLines(t *testing.T) {
	got := HTMLToText("<p>One</p><br><br><br><br><p>Two</p>")
	assert.Equal(t, "One\n\nTwo", got)
}

func TestBuildReplyQuery(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "in:inbox -from:me after:1772323200", BuildReplyQuery(since))
}

func TestParseEmailDate(t *testing.T) {
	want := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

	for _, s := range []string{
		"Mon, 02 Mar 2026 14:30:00 +0000",
		"Mon, 2 Mar 2026 14:30:00 +0000 (UTC)",
		"Mon, 2 Mar 2026 09:30:00 -0500",
	} {
		got, err := parseEmailDate(s)
		if assert.NoError(t, err, s) {
			assert.True(t, want.Equal(got), "%s parsed as %v", s, got)
		}
	}

	_, err := parseEmailDate("")
	assert.Error(t, err)
	_, err = parseEmailDate("yesterday")
	assert.Error(t, err)
}
