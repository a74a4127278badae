package inmemory

import (
	"context"
	"sync"

	cbus "github.com/next-trace/scg-message-center/contract/bus"
)

// Relayed is one recorded RelayTopic call.
type Relayed struct {
	Topic   string
	Options cbus.RelayOptions
}

// Adapter is a thread-safe in-memory implementation of cbus.Adapter.
// It records relayed topics and loops them back to listeners of the same
// topic, for testing and examples.
type Adapter struct {
	mu        sync.Mutex
	Relayed   []Relayed
	listeners map[string][]*listener
}

type listener struct {
	deliver func(topic string)
	stopped bool
}

// Ensure Adapter implements the combined contract.
var _ cbus.Adapter = (*Adapter)(nil)

// New creates a new in-memory adapter instance.
func New() *Adapter { return &Adapter{listeners: make(map[string][]*listener)} }

func (a *Adapter) RelayTopic(ctx context.Context, topic string, opts cbus.RelayOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	a.Relayed = append(a.Relayed, Relayed{Topic: topic, Options: opts})

	targets := make([]func(string), 0, len(a.listeners[topic]))
	for _, l := range a.listeners[topic] {
		if !l.stopped {
			targets = append(targets, l.deliver)
		}
	}
	a.mu.Unlock()

	for _, deliver := range targets {
		deliver(topic)
	}

	return nil
}

func (a *Adapter) Listen(ctx context.Context, topic string, deliver func(topic string)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := &listener{deliver: deliver}

	a.mu.Lock()
	a.listeners[topic] = append(a.listeners[topic], l)
	a.mu.Unlock()

	stop := func() {
		a.mu.Lock()
		l.stopped = true
		a.mu.Unlock()
	}

	return stop, nil
}

// Topics returns the relayed topic names in order.
func (a *Adapter) Topics() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.Relayed))
	for _, r := range a.Relayed {
		out = append(out, r.Topic)
	}

	return out
}
