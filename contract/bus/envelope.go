package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	berr "github.com/next-trace/scg-message-center/contract/errors"
)

// Envelope is the wire representation of a relayed topic publication.
type Envelope struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	PublishedAt time.Time         `json:"published_at"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// NewEnvelope stamps a topic with a fresh id and the current time.
func NewEnvelope(topic string, headers map[string]string) Envelope {
	return Envelope{
		ID:          uuid.NewString(),
		Topic:       topic,
		PublishedAt: time.Now().UTC(),
		Headers:     headers,
	}
}

// Encode marshals the envelope as JSON.
func (e Envelope) Encode() ([]byte, error) { return json.Marshal(e) }

// DecodeEnvelope parses a JSON envelope. Malformed bodies and empty topics
// are reported as ErrSerializationFailed.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	if e.Topic == "" {
		return Envelope{}, fmt.Errorf("decode envelope: empty topic: %w", berr.ErrSerializationFailed)
	}

	return e, nil
}
