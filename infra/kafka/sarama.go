package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

type SaramaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func saramaConfig(cfg Config) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	// one partition per session key keeps a session's trades in order
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	if cfg.Timeout > 0 {
		sc.Producer.Timeout = cfg.Timeout
	}
	return sc
}

func NewSaramaPublisher(cfg Config) (*SaramaPublisher, error) {
	p, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("kafka: sarama producer: %w", err)
	}
	return NewSaramaPublisherWith(p, cfg.Topic), nil
}

// NewSaramaPublisherWith wraps an existing producer, such as a mock.
func NewSaramaPublisherWith(p sarama.SyncProducer, topic string) *SaramaPublisher {
	return &SaramaPublisher{producer: p, topic: topic}
}

// Publish sends synchronously. The sarama producer has no context support,
// so ctx is only checked before sending.
func (p *SaramaPublisher) Publish(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka: send: %w", err)
	}
	return nil
}

func (p *SaramaPublisher) Close() error {
	return p.producer.Close()
}
