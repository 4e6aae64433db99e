// Package broadcaster drains the trade outbox to the broker in the
// background. Delivery is at least once: an entry is deleted only after the
// publisher returned without error.
package broadcaster

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"matchbook/infra/kafka"
	"matchbook/infra/outbox"
)

const (
	DefaultInterval = 250 * time.Millisecond
	defaultBatch    = 512
	shutdownDrain   = 5 * time.Second
)

type Broadcaster struct {
	outbox    *outbox.Outbox
	publisher kafka.Publisher
	interval  time.Duration
	batch     int
	log       *log.Entry

	published uint64
	failures  uint64
}

func New(ob *outbox.Outbox, p kafka.Publisher, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Broadcaster{
		outbox:    ob,
		publisher: p,
		interval:  interval,
		batch:     defaultBatch,
		log:       log.WithField("component", "broadcaster"),
	}
}

// Run drains on every tick until ctx is done, then makes one last bounded
// attempt so trades produced just before shutdown are not left behind.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.WithField("interval", b.interval).Info("started")

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), shutdownDrain)
			n, err := b.DrainOnce(final)
			cancel()
			b.log.WithFields(log.Fields{
				"final":     n,
				"published": b.published,
				"failures":  b.failures,
			}).WithError(err).Info("stopped")
			return
		case <-ticker.C:
			if _, err := b.DrainOnce(ctx); err != nil && ctx.Err() == nil {
				b.log.WithError(err).Warn("drain")
			}
		}
	}
}

// DrainOnce publishes pending entries in sequence order and stops at the
// first failure so a session's trades reach the broker in order. It returns
// the number of entries delivered.
func (b *Broadcaster) DrainOnce(ctx context.Context) (int, error) {
	var sent int
	err := b.outbox.ScanPending(b.batch, func(e outbox.Entry) error {
		if err := b.outbox.Mark(e.Seq, outbox.StateSent, e.Retries); err != nil {
			return err
		}
		if err := b.publisher.Publish(ctx, e.Key, e.Payload); err != nil {
			b.failures++
			if merr := b.outbox.Mark(e.Seq, outbox.StateFailed, e.Retries+1); merr != nil {
				b.log.WithError(merr).WithField("seq", e.Seq).Error("mark failed")
			}
			return err
		}
		if err := b.outbox.Delete(e.Seq); err != nil {
			return err
		}
		b.published++
		sent++
		return nil
	})
	return sent, err
}
