package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ewm/internal/lock"
)

// clearEnv blanks every EWM_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"EWM_DB_PATH", "EWM_LOG_LEVEL", "EWM_LOCK_BACKEND", "EWM_REDIS_ADDR", "EWM_LOCK_TTL", "EWM_LOCK_POLL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{
		DBPath:      "ewm.db",
		LogLevel:    "info",
		LockBackend: LockLocal,
		LockTTL:     10 * time.Second,
		LockPoll:    25 * time.Millisecond,
	}, cfg)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("EWM_DB_PATH", "/tmp/x.db")
	t.Setenv("EWM_LOG_LEVEL", "DEBUG")
	t.Setenv("EWM_LOCK_BACKEND", "redis")
	t.Setenv("EWM_REDIS_ADDR", "localhost:6379")
	t.Setenv("EWM_LOCK_TTL", "3s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err, "an explicit dotenv path must exist")

	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("EWM_LOCK_POLL=5ms\nEWM_DB_PATH=ignored.db\n"), 0o600))

	cfg, err = Load(dotenv)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath, "process env wins over the file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, LockRedis, cfg.LockBackend)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.Equal(t, 5*time.Millisecond, cfg.LockPoll)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestValidate(t *testing.T) {
	valid := Config{DBPath: "a.db", LogLevel: "info", LockBackend: LockLocal, LockTTL: time.Second, LockPoll: time.Millisecond}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }},
		{"unknown backend", func(c *Config) { c.LockBackend = "etcd" }},
		{"redis without addr", func(c *Config) { c.LockBackend = LockRedis }},
		{"zero ttl", func(c *Config) { c.LockTTL = 0 }},
		{"negative poll", func(c *Config) { c.LockPoll = -time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLocker(t *testing.T) {
	local := Config{LockBackend: LockLocal}
	l, closeFn, err := local.Locker()
	require.NoError(t, err)
	assert.IsType(t, &lock.Keyed{}, l)
	assert.NoError(t, closeFn())

	remote := Config{LockBackend: LockRedis, RedisAddr: "localhost:0", LockTTL: time.Second, LockPoll: time.Millisecond}
	l, closeFn, err = remote.Locker()
	require.NoError(t, err)
	assert.IsType(t, &lock.Redis{}, l)
	assert.NoError(t, closeFn())

	_, _, err = Config{LockBackend: "zookeeper"}.Locker()
	assert.Error(t, err)
}
