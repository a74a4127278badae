package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	berr "github.com/next-trace/scg-message-center/contract/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Concrete AMQP connection-backed constructor and publisher wrapper with auto-reconnect.

const (
	exchangeKind   = "topic"
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

type Config struct {
	URL         string
	ConnTimeout time.Duration
	Logger      *slog.Logger // optional, defaults to slog.Default()
}

type reconnectingPublisher struct {
	cfg    Config
	log    *slog.Logger
	mu     sync.RWMutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed chan struct{}
	ready  chan struct{} // closed once the first channel is up
	once   sync.Once
}

func newReconnectingPublisher(cfg Config) (*reconnectingPublisher, func()) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	rp := &reconnectingPublisher{
		cfg:    cfg,
		log:    log,
		closed: make(chan struct{}),
		ready:  make(chan struct{}),
	}
	go rp.run()

	return rp, rp.close
}

func (rp *reconnectingPublisher) channel() *amqp.Channel {
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	return rp.ch
}

func (rp *reconnectingPublisher) Publish(ctx context.Context, m PubMsg) error {
	ch := rp.channel()
	if ch == nil {
		select {
		case <-rp.ready:
		case <-rp.closed:
			return fmt.Errorf("%w: rabbitmq publisher closed", berr.ErrRelayFailed)
		case <-ctx.Done():
			return ctx.Err()
		}

		if ch = rp.channel(); ch == nil {
			return fmt.Errorf("%w: rabbitmq not connected", berr.ErrRelayFailed)
		}
	}

	return ch.PublishWithContext(
		ctx,
		m.Exchange,
		m.RoutingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			Headers:      amqpTable(m.Headers),
			ContentType:  "application/json",
			Body:         m.Body,
		},
	)
}

func (rp *reconnectingPublisher) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(rp.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "scg-message-center"},
		Dial:       amqp.DefaultDial(rp.cfg.ConnTimeout),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if err := ch.ExchangeDeclare(TopicExchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, nil, err
	}

	return conn, ch, nil
}

func (rp *reconnectingPublisher) run() {
	backoff := initialBackoff
	// #nosec G404 -- non-crypto RNG is acceptable for backoff jitter
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // non-crypto RNG is acceptable for backoff jitter

	for {
		select {
		case <-rp.closed:
			return
		default:
		}

		conn, ch, err := rp.dial()
		if err != nil {
			sleep := withJitter(backoff, rng)
			rp.log.Warn("rabbitmq dial failed", "error", err, "retry_in", sleep)

			t := time.NewTimer(sleep)
			select {
			case <-rp.closed:
				t.Stop()
				return
			case <-t.C:
			}

			backoff = nextBackoff(backoff)

			continue
		}

		backoff = initialBackoff

		rp.mu.Lock()
		rp.conn = conn
		rp.ch = ch
		rp.mu.Unlock()
		rp.once.Do(func() { close(rp.ready) })

		// Block on connection close notifications to trigger reconnect
		notify := conn.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-rp.closed:
			return
		case amqpErr := <-notify:
			rp.log.Warn("rabbitmq connection lost", "error", amqpErr)
			rp.reset()
		}
	}
}

func (rp *reconnectingPublisher) reset() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.ch != nil {
		_ = rp.ch.Close()
		rp.ch = nil
	}

	if rp.conn != nil {
		_ = rp.conn.Close()
		rp.conn = nil
	}
}

func (rp *reconnectingPublisher) close() {
	select {
	case <-rp.closed:
		return
	default:
		close(rp.closed)
	}

	rp.reset()
}

// nextBackoff doubles d up to maxBackoff.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}

	return d
}

func withJitter(d time.Duration, rng *rand.Rand) time.Duration {
	if half := int64(d / 2); half > 0 {
		d += time.Duration(rng.Int63n(half)) / 2
	}

	if d > maxBackoff {
		return maxBackoff
	}

	return d
}

// NewWithAMQPConn dials RabbitMQ with auto-reconnect, ensures the topic exchange, and returns Adapter and cleanup.
func NewWithAMQPConn(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", berr.ErrRelayNotConfigured)
	}

	pub, cleanup := newReconnectingPublisher(cfg)

	return New(pub), cleanup, nil
}
