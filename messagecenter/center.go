package messagecenter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	cbus "github.com/next-trace/scg-message-center/contract/bus"
	berr "github.com/next-trace/scg-message-center/contract/errors"
)

// Center maps topic names to ordered subscriber callbacks.
//
// Center is concurrency-safe and contains no global state. Callbacks run
// outside the lock, so a callback may subscribe or publish itself.
type Center struct {
	mu     sync.RWMutex
	topics map[string][]func()

	relay        cbus.Relay
	relayOpts    cbus.RelayOptions
	relayTimeout time.Duration
	logger       *slog.Logger
}

// DefaultRelayTimeout bounds a relay call when the caller's context has no deadline.
const DefaultRelayTimeout = 5 * time.Second

var _ cbus.MessageBus = (*Center)(nil)

// Option configures a Center instance.
type Option func(*Center)

// WithLogger sets the logger used for relay diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Center) { c.logger = l }
}

// WithRelay forwards every published topic to r after local fan-out.
func WithRelay(r cbus.Relay) Option {
	return func(c *Center) { c.relay = r }
}

// WithRelayOptions sets the options passed to the relay on each publish.
func WithRelayOptions(o cbus.RelayOptions) Option {
	return func(c *Center) { c.relayOpts = o }
}

// WithRelayTimeout bounds each relay call made without a caller deadline.
// A non-positive d leaves such calls unbounded.
func WithRelayTimeout(d time.Duration) Option {
	return func(c *Center) { c.relayTimeout = d }
}

// New constructs an empty Center.
func New(opts ...Option) *Center {
	c := &Center{topics: make(map[string][]func()), relayTimeout: DefaultRelayTimeout}
	for _, o := range opts {
		o(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Subscribe appends callback to the subscribers of topic. The same callback may
// be registered more than once and is then invoked once per registration.
func (c *Center) Subscribe(topic string, callback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.topics[topic] = append(c.topics[topic], callback)
}

// Publish invokes the subscribers of topic in registration order.
// Unknown topics are a silent no-op.
func (c *Center) Publish(topic string) {
	c.PublishContext(context.Background(), topic)
}

// PublishContext is Publish with a context for the configured relay.
// Relay failures, including timeouts, are logged and never surface to the caller.
func (c *Center) PublishContext(ctx context.Context, topic string) {
	c.fanOut(topic)

	if c.relay == nil {
		return
	}

	if _, ok := ctx.Deadline(); !ok && c.relayTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.relayTimeout)
		defer cancel()
	}

	if err := c.relay.RelayTopic(ctx, topic, c.relayOpts); err != nil {
		c.logger.WarnContext(ctx, "relay topic failed", "topic", topic, "error", err)
	}
}

func (c *Center) fanOut(topic string) {
	c.mu.RLock()
	subs := append([]func(){}, c.topics[topic]...)
	c.mu.RUnlock()

	for _, fn := range subs {
		if fn == nil {
			continue
		}

		fn()
	}
}

// Bridge listens on src for topic and fans every delivery out to local
// subscribers. Bridged deliveries are not relayed again.
// The returned stop function ends the subscription.
func (c *Center) Bridge(ctx context.Context, src cbus.Source, topic string) (func(), error) {
	if src == nil {
		return nil, fmt.Errorf("bridge %s: %w", topic, berr.ErrRelayNotConfigured)
	}

	stop, err := src.Listen(ctx, topic, c.fanOut)
	if err != nil {
		return nil, fmt.Errorf("bridge %s: %w", topic, err)
	}

	c.logger.DebugContext(ctx, "bridge established", "topic", topic)

	return stop, nil
}

// Topics returns the names of all topics with at least one registration, sorted.
func (c *Center) Topics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.topics))
	for t := range c.topics {
		out = append(out, t)
	}

	sort.Strings(out)

	return out
}

// SubscriberCount reports how many callbacks are registered for topic.
func (c *Center) SubscriberCount(topic string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.topics[topic])
}
