package bus

import "context"

// Relay forwards a locally published topic to an external broker.
// Library users provide an implementation that maps to Kafka/NATS/RabbitMQ etc.
type Relay interface {
	RelayTopic(ctx context.Context, topic string, opts RelayOptions) error
}

// Source delivers topics received from an external broker.
// Listen returns once the subscription is established; deliver is then called
// for every received topic until stop is invoked or ctx is canceled.
type Source interface {
	Listen(ctx context.Context, topic string, deliver func(topic string)) (stop func(), err error)
}

// Adapter is a convenience interface that combines relaying and listening.
//
// This keeps the message center decoupled from concrete transports while enabling
// simple injection of user-provided adapters.
type Adapter interface {
	Relay
	Source
}

// RelayOptions controls how a topic is forwarded.
type RelayOptions struct {
	// SubjectOverride replaces the transport-specific subject/routing key.
	SubjectOverride string
	Headers         map[string]string
}
