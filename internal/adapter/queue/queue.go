package queue

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

const (
	DriverNATS     = "nats"
	DriverRabbitMQ = "rabbitmq"
	DriverNone     = "none"
)

// Config selects and configures the broker that carries voice events.
type Config struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
	// Group makes replicas of the same consumer share one subscription.
	Group string `mapstructure:"group"`
}

// New connects to the configured broker. DriverNone yields a nil queue;
// callers treat that as publishing disabled.
func New(cfg Config, log *zap.Logger) (MessageQueue, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverNATS:
		return NewNATSQueue(cfg.URL, cfg.Group, log)
	case DriverRabbitMQ:
		return NewRabbitMQQueue(cfg.URL, cfg.Group, log)
	case DriverNone, "":
		log.Info("Message queue disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
