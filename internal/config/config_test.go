package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
mongo:
  uri: "mongodb://localhost:27017"
  database: "realtime"
`))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "realtime", cfg.Mongo.Database)
}

func TestLoadExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
development: true
server:
  port: "9090"
  read_timeout_seconds: 30
  rate_limit_per_sec: 5
redis:
  addr: "localhost:6379"
  prefix: "rt"
kafka:
  brokers: ["localhost:9092"]
  topic: "audit"
jwt:
  secret: "s3cret"
`))
	require.NoError(t, err)

	assert.True(t, cfg.Development)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5, cfg.Server.RateLimitPerSec)
	assert.Equal(t, "rt", cfg.Redis.Prefix)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
