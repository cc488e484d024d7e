package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001/api", cfg.API.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "companion.db", filepath.Base(cfg.Store.DSN))
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
api:
  base_url: https://study.example.com/api
  timeout: 15s
  max_retries: 4
  requests_per_second: 5
store:
  driver: redis
  dsn: localhost:6379
  ttl: 24h
http:
  addr: 127.0.0.1:9090
  origins: [https://ui.example.com]
otel:
  enabled: true
  endpoint: collector:4318
`), 0o600))

	t.Setenv(ConfigEnv, path)
	t.Setenv("COMPANION_API_MAX_RETRIES", "1")
	t.Setenv("COMPANION_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_ENABLED", "")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "https://study.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 1, cfg.API.MaxRetries)
	assert.Equal(t, 5.0, cfg.API.RequestsPerSecond)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.Origins)

	tr := cfg.Tracing()
	assert.True(t, tr.Enabled)
	assert.Equal(t, "collector:4318", tr.Endpoint)
	assert.Equal(t, ServiceName, tr.ServiceName)
}

func TestLoadConfigRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a map"), 0o600))
	t.Setenv(ConfigEnv, path)
	_, err := LoadConfig(nil)
	assert.Error(t, err)

	t.Setenv(ConfigEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig(nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Store.Driver = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.API.BaseURL = " "
	assert.Error(t, cfg.Validate())
}
