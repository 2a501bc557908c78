package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComedyAnalyzer/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{configPathEnv, databaseDSNEnv, redisURLEnv, storageDriverEnv, httpAddrEnv, logLevelEnv, tierEnv} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  format: json
storage:
  driver: redis
  redis:
    ttl: 2h
pipeline:
  stages: [1, 9]
  concurrency: 8
  pollInterval: 30s
http:
  addr: ":9090"
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(redisURLEnv, "redis://cache:6379/1")
	t.Setenv(tierEnv, "expert")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load()
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis://cache:6379/1", cfg.Storage.Redis.URL)
	assert.Equal(t, 2*time.Hour, cfg.Storage.Redis.TTL)
	assert.Equal(t, []int{1, 9}, cfg.Pipeline.Stages)
	assert.Equal(t, domain.TierExpert, cfg.Pipeline.Tier)
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.PollInterval)
	assert.Equal(t, 55, cfg.Pipeline.LinesPerPage)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoadRevertsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(storageDriverEnv, "cassandra")
	t.Setenv(tierEnv, "platinum")

	cfg := Load()
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, domain.TierPro, cfg.Pipeline.Tier)
}

func TestLoadIgnoresUnreadableFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, defaultConfig(), Load())
}
