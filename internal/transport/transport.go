// Package transport opens the broker relay selected by configuration.
package transport

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/next-trace/scg-message-center/adapters/kafka"
	"github.com/next-trace/scg-message-center/adapters/nats"
	"github.com/next-trace/scg-message-center/adapters/rabbitmq"
	"github.com/next-trace/scg-message-center/adapters/watermill"
	cbus "github.com/next-trace/scg-message-center/contract/bus"
	berr "github.com/next-trace/scg-message-center/contract/errors"
	"github.com/next-trace/scg-message-center/internal/config"
)

const connTimeout = 5 * time.Second

// Transport is an opened relay. Source is nil for publish-only brokers.
type Transport struct {
	Relay  cbus.Relay
	Source cbus.Source
	Close  func()
}

// Open connects to the relay named by cfg.Relay. RelayNone yields a zero
// Transport with a no-op Close.
func Open(cfg *config.Config, logger *slog.Logger) (*Transport, error) {
	switch cfg.Relay {
	case config.RelayNone:
		return &Transport{Close: func() {}}, nil
	case config.RelayNATS:
		ad, cleanup, err := nats.NewWithNATS(nats.Config{URL: cfg.NATSURL, Name: cfg.ClientName, ConnTimeout: connTimeout})
		if err != nil {
			return nil, err
		}

		ad.Logger = logger

		return &Transport{Relay: ad, Source: ad, Close: cleanup}, nil
	case config.RelayRabbitMQ:
		ad, cleanup, err := rabbitmq.NewWithAMQPConn(rabbitmq.Config{URL: cfg.RabbitMQURL, ConnTimeout: connTimeout, Logger: logger})
		if err != nil {
			return nil, err
		}

		return &Transport{Relay: ad, Close: cleanup}, nil
	case config.RelayKafka:
		ad, cleanup, err := kafka.NewWithKgo(kafka.Config{Brokers: cfg.KafkaBrokers, ClientID: cfg.ClientName})
		if err != nil {
			return nil, err
		}

		return &Transport{Relay: ad, Close: cleanup}, nil
	case config.RelayWatermill:
		ad := watermill.NewGoChannel(logger)
		cleanup := func() {
			if err := ad.Close(); err != nil {
				logger.Warn("close watermill", "error", err)
			}
		}

		return &Transport{Relay: ad, Source: ad, Close: cleanup}, nil
	default:
		return nil, fmt.Errorf("open relay %q: %w", cfg.Relay, berr.ErrRelayNotConfigured)
	}
}
