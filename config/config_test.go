package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matchbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.Publishing())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  format: json
journal:
  dir: /var/lib/matchbook/journal
  segmentSize: 1048576
outbox:
  dir: /var/lib/matchbook/outbox
broker:
  client: kafka-go
  brokers:
    - "k1:9092"
    - "k2:9092"
  topic: trades
  interval: 1s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, int64(1<<20), cfg.Journal.SegmentSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.Brokers)
	assert.Equal(t, "kafka-go", cfg.Broker.Client)
	assert.Equal(t, time.Second, cfg.Broker.Interval)
	assert.True(t, cfg.Publishing())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "log:\n  level: debug\n")
	t.Setenv("MATCHBOOK_LOG_LEVEL", "warn")
	t.Setenv("MATCHBOOK_JOURNAL_DIR", "/tmp/j")
	t.Setenv("MATCHBOOK_JOURNAL_SYNC", "true")
	t.Setenv("MATCHBOOK_OUTBOX_DIR", "/tmp/o")
	t.Setenv("MATCHBOOK_BROKER_BROKERS", " a:1 , b:2 ,")
	t.Setenv("MATCHBOOK_BROKER_INTERVAL", "50ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/j", cfg.Journal.Dir)
	assert.True(t, cfg.Journal.Sync)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Broker.Brokers)
	assert.Equal(t, 50*time.Millisecond, cfg.Broker.Interval)
}

func TestEnvParseErrors(t *testing.T) {
	t.Setenv("MATCHBOOK_BROKER_INTERVAL", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"brokers without outbox", func(c *Config) { c.Broker.Brokers = []string{"k:9092"} }},
		{"client", func(c *Config) {
			c.Outbox.Dir = "o"
			c.Broker.Brokers = []string{"k:9092"}
			c.Broker.Client = "franz"
		}},
		{"segment size", func(c *Config) { c.Journal.SegmentSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
