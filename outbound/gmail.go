// ABOUTME: Email channel backed by the Gmail API
// ABOUTME: Builds an RFC 5322 message and sends it through users.messages.send
package outbound

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"
)

// GmailChannel sends email as the authenticated Gmail user.
type GmailChannel struct {
	service  *gmail.Service
	from     string
	fromName string
}

// NewGmailChannel creates an email channel. from is used for the From header.
func NewGmailChannel(service *gmail.Service, from, fromName string) *GmailChannel {
	return &GmailChannel{service: service, from: from, fromName: fromName}
}

func (g *GmailChannel) Send(ctx context.Context, msg Message) (Ack, error) {
	if strings.TrimSpace(msg.To) == "" {
		return Ack{}, ErrNoRecipient
	}

	raw := BuildMIME(g.from, g.fromName, msg)
	out := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: msg.ThreadID,
	}

	sent, err := g.service.Users.Messages.Send("me", out).Context(ctx).Do()
	if err != nil {
		return Ack{}, fmt.Errorf("failed to send email: %w", err)
	}

	return Ack{
		Channel:    "email",
		ExternalID: sent.Id,
		ThreadID:   sent.ThreadId,
		SentAt:     time.Now().UTC(),
	}, nil
}

// BuildMIME renders a plain-text email.
func BuildMIME(from, fromName string, msg Message) []byte {
	var b bytes.Buffer

	fromAddr := mail.Address{Name: fromName, Address: from}
	toAddr := mail.Address{Name: msg.ToName, Address: msg.To}

	fmt.Fprintf(&b, "From: %s\r\n", fromAddr.String())
	fmt.Fprintf(&b, "To: %s\r\n", toAddr.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return b.Bytes()
}
