package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	cbus "github.com/next-trace/scg-message-center/contract/bus"
	berr "github.com/next-trace/scg-message-center/contract/errors"
)

const subjectPrefix = "topics."

// Client is a minimal NATS-like interface decoupled from any concrete library.
// Users can provide a wrapper around their NATS connection to satisfy this.
type Client interface {
	// Publish publishes a message to a subject with optional headers.
	Publish(subject string, data []byte, headers map[string]string) error
	// Subscribe registers handler for subject and returns a function that removes it.
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func() error, err error)
}

// Adapter implements cbus.Adapter using an injected NATS-like Client.
type Adapter struct {
	Client     Client
	Propagator cbus.HeaderPropagator // optional
	Logger     *slog.Logger          // optional, defaults to slog.Default()
}

// Ensure Adapter implements the combined contract.
var _ cbus.Adapter = (*Adapter)(nil)

// New creates a new NATS adapter instance with the provided client.
func New(c Client) *Adapter { return &Adapter{Client: c} }

// RelayTopic publishes an envelope for topic on subject "topics.<topic>".
func (a *Adapter) RelayTopic(ctx context.Context, topic string, opts cbus.RelayOptions) error {
	if err := a.ready(ctx, berr.ErrRelayFailed, "relay"); err != nil {
		return err
	}

	headers := cbus.CopyHeaders(opts.Headers, 2)
	if a.Propagator != nil {
		a.Propagator.Inject(ctx, headers)
	}

	body, err := cbus.NewEnvelope(topic, headers).Encode()
	if err != nil {
		return fmt.Errorf("nats relay serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	if err := a.Client.Publish(subjectFor(topic, opts), body, headers); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("nats relay publish: %w", errors.Join(berr.ErrRelayFailed, err))
	}

	return nil
}

// Listen subscribes to the subject of topic and delivers every decoded envelope.
// The subscription ends when stop is called or ctx is done.
func (a *Adapter) Listen(ctx context.Context, topic string, deliver func(topic string)) (func(), error) {
	if err := a.ready(ctx, berr.ErrSubscribeFailed, "listen"); err != nil {
		return nil, err
	}

	unsub, err := a.Client.Subscribe(subjectFor(topic, cbus.RelayOptions{}), func(data []byte) {
		env, derr := cbus.DecodeEnvelope(data)
		if derr != nil {
			a.logger().Warn("nats listen: dropping malformed envelope", "topic", topic, "error", derr)
			return
		}

		deliver(env.Topic)
	})
	if err != nil {
		return nil, fmt.Errorf("nats listen subscribe: %w", errors.Join(berr.ErrSubscribeFailed, err))
	}

	var once sync.Once

	done := make(chan struct{})
	stop := func() {
		once.Do(func() {
			close(done)

			if uerr := unsub(); uerr != nil {
				a.logger().Warn("nats listen: unsubscribe failed", "topic", topic, "error", uerr)
			}
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()

	return stop, nil
}

func (a *Adapter) ready(ctx context.Context, base error, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Client == nil {
		return fmt.Errorf("nats %s: %w", label, base)
	}

	return nil
}

func (a *Adapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}

	return slog.Default()
}

func subjectFor(topic string, o cbus.RelayOptions) string {
	if o.SubjectOverride != "" {
		return o.SubjectOverride
	}

	return subjectPrefix + topic
}
