package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fjod/go_cart/cart-store/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, storage.DefaultKey, cfg.Storage.Key)
	assert.True(t, cfg.Storage.BreakerEnabled)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartd.yaml")
	err := os.WriteFile(path, []byte(`
http_port: "9090"
log_level: debug
request_timeout: 3s
storage:
  backend: redis
  redis_addr: redis:6379
  redis_db: 2
  breaker_enabled: false
`), 0o600)
	require.NoError(t, err)

	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("STORAGE_KEY", "@Test:products")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6380", cfg.Storage.RedisAddr)
	assert.Equal(t, "@Test:products", cfg.Storage.Key)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.False(t, cfg.Storage.BreakerEnabled)
	// untouched by file or env
	assert.Equal(t, "cartdb", cfg.Storage.MongoDBName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "mongo")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("HEALTH_INTERVAL", "250ms")
	t.Setenv("GRPC_PORT", "50060")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendMongo, cfg.Storage.Backend)
	assert.False(t, cfg.Storage.BreakerEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.HealthInterval)
	assert.Equal(t, "50060", cfg.GRPCPort)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [1, 2"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
