// Package watermill relays and bridges message center topics over any
// Watermill publisher/subscriber pair, including the in-process GoChannel.
package watermill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	wm "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	cbus "github.com/next-trace/scg-message-center/contract/bus"
	berr "github.com/next-trace/scg-message-center/contract/errors"
)

const (
	subjectPrefix = "topics."
	metaKeyTopic  = "topic"
)

// Adapter implements cbus.Adapter over a Watermill publisher and subscriber.
type Adapter struct {
	pub    message.Publisher
	sub    message.Subscriber
	logger *slog.Logger
}

var _ cbus.Adapter = (*Adapter)(nil)

// New wraps an existing Watermill publisher and subscriber. Either may be nil
// when only one direction is used.
func New(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{pub: pub, sub: sub, logger: logger}
}

// NewGoChannel builds an Adapter over an in-memory GoChannel pub/sub.
func NewGoChannel(logger *slog.Logger) *Adapter {
	goChannel := gochannel.NewGoChannel(gochannel.Config{}, wm.NewStdLogger(false, false))

	return New(goChannel, goChannel, logger)
}

// RelayTopic publishes an envelope for topic on "topics.<topic>".
func (a *Adapter) RelayTopic(ctx context.Context, topic string, opts cbus.RelayOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.pub == nil {
		return fmt.Errorf("watermill relay: %w", berr.ErrRelayFailed)
	}

	env := cbus.NewEnvelope(topic, cbus.CopyHeaders(opts.Headers, 0))

	body, err := env.Encode()
	if err != nil {
		return fmt.Errorf("watermill relay serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	msg := message.NewMessage(env.ID, body)
	msg.Metadata.Set(metaKeyTopic, topic)

	for k, v := range opts.Headers {
		msg.Metadata.Set(k, v)
	}

	if err := a.pub.Publish(subjectFor(topic, opts), msg); err != nil {
		return fmt.Errorf("watermill relay publish: %w", errors.Join(berr.ErrRelayFailed, err))
	}

	return nil
}

// Listen consumes "topics.<topic>" and delivers each decoded envelope.
// Messages are acked after delivery and nacked when they cannot be decoded.
func (a *Adapter) Listen(ctx context.Context, topic string, deliver func(topic string)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if a.sub == nil {
		return nil, fmt.Errorf("watermill listen: %w", berr.ErrSubscribeFailed)
	}

	subCtx, cancel := context.WithCancel(ctx)

	messages, err := a.sub.Subscribe(subCtx, subjectFor(topic, cbus.RelayOptions{}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watermill listen subscribe: %w", errors.Join(berr.ErrSubscribeFailed, err))
	}

	go func() {
		for msg := range messages {
			env, derr := cbus.DecodeEnvelope(msg.Payload)
			if derr != nil {
				a.logger.Warn("watermill listen: dropping malformed envelope", "topic", topic, "msg_id", msg.UUID, "error", derr)
				msg.Nack()

				continue
			}

			deliver(env.Topic)
			msg.Ack()
		}

		a.logger.Debug("watermill listen loop ended", "topic", topic)
	}()

	return cancel, nil
}

// Close shuts down the underlying publisher and subscriber.
func (a *Adapter) Close() error {
	var errs []error

	if a.pub != nil {
		errs = append(errs, a.pub.Close())
	}

	// GoChannel serves both roles and must only be closed once.
	if a.sub != nil && any(a.sub) != any(a.pub) {
		errs = append(errs, a.sub.Close())
	}

	return errors.Join(errs...)
}

func subjectFor(topic string, o cbus.RelayOptions) string {
	if o.SubjectOverride != "" {
		return o.SubjectOverride
	}

	return subjectPrefix + topic
}
