// Package kafka publishes trade events to a Kafka topic. Two clients are
// supported behind Publisher: sarama's SyncProducer and kafka-go's Writer.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	ClientSarama  = "sarama"
	ClientKafkaGo = "kafka-go"
)

var ErrUnknownClient = errors.New("kafka: unknown client")

// Publisher delivers one message and blocks until the broker acknowledged it.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

type Config struct {
	Client  string
	Brokers []string
	Topic   string
	// Timeout bounds a single publish; zero means the client default.
	Timeout time.Duration
}

func NewPublisher(cfg Config) (Publisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka: brokers and topic are required")
	}
	switch cfg.Client {
	case ClientSarama, "":
		return NewSaramaPublisher(cfg)
	case ClientKafkaGo:
		return NewWriterPublisher(cfg), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownClient, cfg.Client)
}
