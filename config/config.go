// Package config loads engine settings. Sources are applied in order:
// built-in defaults, an optional YAML file, a .env file in the working
// directory, then MATCHBOOK_* environment variables. Every setting is
// optional; with none the engine is a plain stdin/stdout process.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "MATCHBOOK_"

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Journal JournalConfig `yaml:"journal"`
	Outbox  OutboxConfig  `yaml:"outbox"`
	Broker  BrokerConfig  `yaml:"broker"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// JournalConfig enables the command journal when Dir is set. Each run
// writes into its own session subdirectory of Dir.
type JournalConfig struct {
	Dir         string `yaml:"dir"`
	SegmentSize int64  `yaml:"segmentSize"`
	Sync        bool   `yaml:"sync"`
}

type OutboxConfig struct {
	Dir string `yaml:"dir"`
}

type BrokerConfig struct {
	Client   string        `yaml:"client"`
	Brokers  []string      `yaml:"brokers"`
	Topic    string        `yaml:"topic"`
	Interval time.Duration `yaml:"interval"`
}

func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Journal: JournalConfig{SegmentSize: 64 << 20},
		Broker:  BrokerConfig{Client: "sarama", Topic: "matchbook.trades", Interval: 250 * time.Millisecond},
	}
}

// Load reads path when it is not empty; a missing .env is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := get("JOURNAL_DIR"); ok {
		c.Journal.Dir = v
	}
	if v, ok := get("JOURNAL_SEGMENT_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %sJOURNAL_SEGMENT_SIZE: %w", envPrefix, err)
		}
		c.Journal.SegmentSize = n
	}
	if v, ok := get("JOURNAL_SYNC"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sJOURNAL_SYNC: %w", envPrefix, err)
		}
		c.Journal.Sync = b
	}
	if v, ok := get("OUTBOX_DIR"); ok {
		c.Outbox.Dir = v
	}
	if v, ok := get("BROKER_CLIENT"); ok {
		c.Broker.Client = v
	}
	if v, ok := get("BROKER_BROKERS"); ok {
		c.Broker.Brokers = splitList(v)
	}
	if v, ok := get("BROKER_TOPIC"); ok {
		c.Broker.Topic = v
	}
	if v, ok := get("BROKER_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sBROKER_INTERVAL: %w", envPrefix, err)
		}
		c.Broker.Interval = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var ErrInvalid = errors.New("config: invalid")

func (c *Config) Validate() error {
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.Journal.SegmentSize < 0 {
		return fmt.Errorf("%w: journal.segmentSize %d", ErrInvalid, c.Journal.SegmentSize)
	}
	if len(c.Broker.Brokers) > 0 {
		if c.Outbox.Dir == "" {
			return fmt.Errorf("%w: broker.brokers needs outbox.dir", ErrInvalid)
		}
		switch c.Broker.Client {
		case "", "sarama", "kafka-go":
		default:
			return fmt.Errorf("%w: broker.client %q", ErrInvalid, c.Broker.Client)
		}
		if c.Broker.Topic == "" {
			return fmt.Errorf("%w: broker.topic is empty", ErrInvalid)
		}
	}
	if c.Broker.Interval < 0 {
		return fmt.Errorf("%w: broker.interval %s", ErrInvalid, c.Broker.Interval)
	}
	return nil
}

// Publishing reports whether trades should leave the process.
func (c *Config) Publishing() bool {
	return c.Outbox.Dir != "" && len(c.Broker.Brokers) > 0
}
