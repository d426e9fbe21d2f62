// ABOUTME: LinkedIn channel that queues messages for manual sending
// ABOUTME: Writes to the outbox table since LinkedIn offers no messaging API for this use
package outbound

import (
	"context"
	"database/sql"
	"strings"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
)

// OutboxChannel stores messages for a person to send by hand.
type OutboxChannel struct {
	db      *sql.DB
	channel string
}

func NewOutboxChannel(database *sql.DB, channel string) *OutboxChannel {
	return &OutboxChannel{db: database, channel: channel}
}

func (o *OutboxChannel) Send(ctx context.Context, msg Message) (Ack, error) {
	if strings.TrimSpace(msg.To) == "" {
		return Ack{}, ErrNoRecipient
	}

	entry := &db.OutboxMessage{
		ProspectID: msg.ProspectID,
		Channel:    o.channel,
		Recipient:  msg.To,
		Subject:    msg.Subject,
		Body:       msg.Body,
	}
	if err := db.CreateOutboxMessage(o.db, entry); err != nil {
		return Ack{}, err
	}

	return Ack{
		Channel:    o.channel,
		ExternalID: entry.ID.String(),
		SentAt:     entry.CreatedAt,
		Manual:     true,
	}, nil
}
