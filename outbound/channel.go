// ABOUTME: Outbound messaging abstraction
// ABOUTME: Defines the Channel interface, message and acknowledgement types, and send errors
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDailyLimitReached means the send was refused to stay under the
	// daily cap. It is not a failure: the caller retries on a later cycle.
	ErrDailyLimitReached = errors.New("daily send limit reached")
	ErrSuppressed        = errors.New("recipient is on the suppression list")
	ErrNoRecipient       = errors.New("message has no recipient")
	ErrUnknownChannel    = errors.New("no channel registered")
)

// Message is one outbound message to a prospect.
type Message struct {
	ProspectID uuid.UUID
	Channel    string
	To         string // email address or LinkedIn profile URL
	ToName     string
	Subject    string
	Body       string
	ThreadID   string // reply within an existing thread when set
}

// Ack confirms a message left the system.
type Ack struct {
	Channel    string
	ExternalID string
	ThreadID   string
	SentAt     time.Time
	// Manual is true when the message was queued for a person to send.
	Manual bool
}

// Channel delivers messages over one medium.
type Channel interface {
	Send(ctx context.Context, msg Message) (Ack, error)
}
