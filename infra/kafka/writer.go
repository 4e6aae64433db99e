package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type WriterPublisher struct {
	writer *kafka.Writer
}

func NewWriterPublisher(cfg Config) *WriterPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
	if cfg.Timeout > 0 {
		w.WriteTimeout = cfg.Timeout
	}
	return &WriterPublisher{writer: w}
}

func (p *WriterPublisher) Publish(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

func (p *WriterPublisher) Close() error {
	return p.writer.Close()
}
