package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"matchbook/config"
	"matchbook/infra/journal"
	"matchbook/infra/kafka"
	"matchbook/infra/logging"
	"matchbook/infra/outbox"
	"matchbook/jobs/broadcaster"
	"matchbook/report"
	"matchbook/service"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	replayDir := flag.String("replay", "", "re-run a journaled session directory and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fail to load config: %v", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("fail to configure logging: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	out := report.NewText(os.Stdout)

	if *replayDir != "" {
		replay(*replayDir, out)
		return
	}
	serve(ctx, cfg, out)
}

func replay(dir string, out *report.Text) {
	session := filepath.Base(filepath.Clean(dir))
	engine := service.New(out, service.Options{Session: session})

	last, err := engine.Replay(dir)
	if err != nil {
		log.Fatalf("replay of %s stopped after seq %d: %v", dir, last, err)
	}
	logStats(session, engine.Stats())
}

func serve(ctx context.Context, cfg *config.Config, out *report.Text) {
	session := uuid.NewString()
	opts := service.Options{Session: session}

	if cfg.Journal.Dir != "" {
		j, err := journal.Open(journal.Config{
			Dir:         filepath.Join(cfg.Journal.Dir, session),
			SegmentSize: cfg.Journal.SegmentSize,
			SyncEvery:   cfg.Journal.Sync,
		})
		if err != nil {
			log.Fatalf("journal init failed: %v", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				log.WithError(err).Error("journal close")
			}
		}()
		opts.Journal = j
		log.WithField("dir", j.Dir()).Info("journaling commands")
	}

	var ob *outbox.Outbox
	if cfg.Outbox.Dir != "" {
		var err error
		ob, err = outbox.Open(cfg.Outbox.Dir, outbox.Options{})
		if err != nil {
			log.Fatalf("outbox init failed: %v", err)
		}
		defer ob.Close()
		opts.Outbox = ob
	}

	// deferred calls run in reverse: the broadcaster stops before the
	// outbox it reads from is closed
	if cfg.Publishing() {
		stop := startBroadcaster(cfg, ob)
		defer stop()
	}

	engine := service.New(out, opts)

	err := engine.Run(ctx, os.Stdin)
	logStats(session, engine.Stats())
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("engine stopped")
	}
}

func startBroadcaster(cfg *config.Config, ob *outbox.Outbox) (stop func()) {
	pub, err := kafka.NewPublisher(kafka.Config{
		Client:  cfg.Broker.Client,
		Brokers: cfg.Broker.Brokers,
		Topic:   cfg.Broker.Topic,
	})
	if err != nil {
		log.Fatalf("publisher init failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		broadcaster.New(ob, pub, cfg.Broker.Interval).Run(ctx)
	}()

	return func() {
		cancel()
		wg.Wait()
		if err := pub.Close(); err != nil {
			log.WithError(err).Warn("publisher close")
		}
	}
}

func logStats(session string, s service.Stats) {
	log.WithFields(log.Fields{
		"session":  session,
		"commands": s.Commands,
		"accepted": s.Accepted,
		"rejected": s.Rejected,
		"trades":   s.Trades,
	}).Info("session finished")
}

func setupSignalHandler(cancel context.CancelFunc) {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigC
		log.Info("received shutdown signal")
		cancel()
	}()
}
