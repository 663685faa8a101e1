package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// noEnvFile keeps a developer's local .env out of the tests.
const noEnvFile = "testdata-does-not-exist.env"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(noEnvFile)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	require.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	require.Equal(t, DriverMemory, cfg.Store.Driver)
	require.Equal(t, "todo:", cfg.Store.Redis.Prefix)
	require.Equal(t, ExporterNone, cfg.Tracing.Exporter)
	require.Equal(t, "info", cfg.LogLevel)
	require.Zero(t, cfg.RateLimit.RPS)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RECONCILE_CONCURRENCY", "8")

	cfg, err := Load(noEnvFile)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, DriverRedis, cfg.Store.Driver)
	require.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	require.Equal(t, 2, cfg.Store.Redis.DB)
	require.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	require.InDelta(t, 2.5, cfg.RateLimit.RPS, 1e-9)
	require.Equal(t, ExporterStdout, cfg.Tracing.Exporter)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 8, cfg.ReconcileConcurrency)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=sqlite\nSQLITE_PATH=/tmp/x.db\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("STORE_DRIVER")
		_ = os.Unsetenv("SQLITE_PATH")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.Store.Driver)
	require.Equal(t, "/tmp/x.db", cfg.Store.SQLitePath)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown driver":    {"STORE_DRIVER": "dynamo"},
		"mongo without uri": {"STORE_DRIVER": "mongo"},
		"unknown exporter":  {"TRACING_EXPORTER": "zipkin"},
		"zero req timeout":  {"REQUEST_TIMEOUT": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(noEnvFile)
			require.Error(t, err)
		})
	}
}
