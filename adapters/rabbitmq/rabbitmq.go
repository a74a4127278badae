package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	cbus "github.com/next-trace/scg-message-center/contract/bus"
	berr "github.com/next-trace/scg-message-center/contract/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// TopicExchange is the exchange topics are published to.
const TopicExchange = "topics"

type PubMsg struct {
	Exchange   string
	RoutingKey string
	Body       []byte
	Headers    map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, m PubMsg) error
}

type Adapter struct {
	Publisher  Publisher
	Propagator cbus.HeaderPropagator // optional, for context propagation into headers
}

var _ cbus.Relay = (*Adapter)(nil)

func New(p Publisher) *Adapter { return &Adapter{Publisher: p} }

// NewWithPropagator allows configuring a HeaderPropagator for context propagation.
func NewWithPropagator(p Publisher, hp cbus.HeaderPropagator) *Adapter {
	return &Adapter{Publisher: p, Propagator: hp}
}

// RelayTopic publishes an envelope for topic to the topic exchange.
func (a *Adapter) RelayTopic(ctx context.Context, topic string, opts cbus.RelayOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Publisher == nil {
		return fmt.Errorf("rabbitmq relay: %w", berr.ErrRelayFailed)
	}

	// copy headers to avoid mutating caller-provided map
	hdrs := cbus.CopyHeaders(opts.Headers, 4)
	if a.Propagator != nil {
		a.Propagator.Inject(ctx, hdrs)
	}

	body, err := cbus.NewEnvelope(topic, hdrs).Encode()
	if err != nil {
		return fmt.Errorf("rabbitmq relay serialize: %w", errors.Join(berr.ErrSerializationFailed, err))
	}

	msg := PubMsg{
		Exchange:   TopicExchange,
		RoutingKey: routingFor(topic, opts),
		Body:       body,
		Headers:    hdrs,
	}
	if err := a.Publisher.Publish(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("rabbitmq relay publish: %w", errors.Join(berr.ErrRelayFailed, err))
	}

	return nil
}

func routingFor(topic string, o cbus.RelayOptions) string {
	if o.SubjectOverride != "" {
		return o.SubjectOverride
	}

	return topic
}

func amqpTable(headers map[string]string) amqp.Table {
	if len(headers) == 0 {
		return nil
	}

	h := amqp.Table{}
	for k, v := range headers {
		h[k] = v
	}

	return h
}
