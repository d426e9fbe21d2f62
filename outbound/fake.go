// ABOUTME: In-memory Channel for tests and dry runs
// ABOUTME: Records every message and can be told to fail
package outbound

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecordingChannel keeps sent messages in memory.
type RecordingChannel struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

func (r *RecordingChannel) Send(ctx context.Context, msg Message) (Ack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Ack{}, r.Err
	}
	r.sent = append(r.sent, msg)
	return Ack{Channel: msg.Channel, ExternalID: uuid.NewString(), SentAt: time.Now().UTC()}, nil
}

// Sent returns the messages delivered so far.
func (r *RecordingChannel) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
