package kafka

import (
	"context"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-message-center/contract/bus"
	berr "github.com/next-trace/scg-message-center/contract/errors"
)

const topicPrefix = "topics."

// Writer is a minimal Kafka-like writer interface.
// Users can adapt franz-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Adapter implements cbus.Relay using an injected Writer.
type Adapter struct {
	Writer     Writer
	Propagator cbus.HeaderPropagator // optional
}

var _ cbus.Relay = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w} }

// RelayTopic writes an envelope for topic to Kafka topic "topics.<topic>",
// keyed by the message center topic so one topic stays on one partition.
func (a *Adapter) RelayTopic(ctx context.Context, topic string, opts cbus.RelayOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka relay: %w", berr.ErrRelayFailed)
	}

	headers := cbus.CopyHeaders(opts.Headers, 2)
	if a.Propagator != nil {
		a.Propagator.Inject(ctx, headers)
	}

	val, err := cbus.NewEnvelope(topic, headers).Encode()
	if err != nil {
		return fmt.Errorf("kafka relay serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	if err = a.Writer.Write(ctx, kafkaTopic(topic, opts), []byte(topic), val, headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("kafka relay write: %w", errors.Join(berr.ErrRelayFailed, err))
	}

	return nil
}

func kafkaTopic(topic string, o cbus.RelayOptions) string {
	if o.SubjectOverride != "" {
		return o.SubjectOverride
	}

	return topicPrefix + topic
}
