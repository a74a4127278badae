package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	berr "github.com/next-trace/scg-message-center/contract/errors"
)

// Relay kinds accepted in MSGCENTER_RELAY.
const (
	RelayNone      = "none"
	RelayNATS      = "nats"
	RelayRabbitMQ  = "rabbitmq"
	RelayKafka     = "kafka"
	RelayWatermill = "watermill"
)

// Config holds all configuration for the msgcenter command.
type Config struct {
	LogLevel     slog.Level
	Relay        string
	NATSURL      string
	RabbitMQURL  string
	KafkaBrokers []string
	ClientName   string
}

// Load reads the given .env files (default ".env") into the environment and
// builds a Config from it. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env: %w", err)
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Relay:       strings.ToLower(strings.TrimSpace(getenv("MSGCENTER_RELAY"))),
		NATSURL:     getenv("MSGCENTER_NATS_URL"),
		RabbitMQURL: getenv("MSGCENTER_RABBITMQ_URL"),
		ClientName:  getenv("MSGCENTER_CLIENT_NAME"),
	}

	if cfg.Relay == "" {
		cfg.Relay = RelayNone
	}

	if cfg.ClientName == "" {
		cfg.ClientName = "msgcenter"
	}

	for _, b := range strings.Split(getenv("MSGCENTER_KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	if lvl := getenv("MSGCENTER_LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("MSGCENTER_LOG_LEVEL: %w", err)
		}
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Relay {
	case RelayNone, RelayWatermill:
		return nil
	case RelayNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("MSGCENTER_NATS_URL required for relay %s: %w", c.Relay, berr.ErrRelayNotConfigured)
		}
	case RelayRabbitMQ:
		if c.RabbitMQURL == "" {
			return fmt.Errorf("MSGCENTER_RABBITMQ_URL required for relay %s: %w", c.Relay, berr.ErrRelayNotConfigured)
		}
	case RelayKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("MSGCENTER_KAFKA_BROKERS required for relay %s: %w", c.Relay, berr.ErrRelayNotConfigured)
		}
	default:
		return fmt.Errorf("unknown relay %q: %w", c.Relay, berr.ErrRelayNotConfigured)
	}

	return nil
}
