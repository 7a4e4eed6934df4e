// Package config loads runtime configuration from the environment.
//
// Values come from EWM_* variables, optionally seeded from a .env file.
// Variables already present in the process environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/roach88/ewm/internal/lock"
)

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

var validate = validator.New()

// Config is the process configuration.
type Config struct {
	DBPath      string        `env:"EWM_DB_PATH" envDefault:"ewm.db" validate:"required"`
	LogLevel    string        `env:"EWM_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LockBackend string        `env:"EWM_LOCK_BACKEND" envDefault:"local" validate:"oneof=local redis"`
	RedisAddr   string        `env:"EWM_REDIS_ADDR" validate:"required_if=LockBackend redis"`
	LockTTL     time.Duration `env:"EWM_LOCK_TTL" envDefault:"10s" validate:"gt=0"`
	LockPoll    time.Duration `env:"EWM_LOCK_POLL" envDefault:"25ms" validate:"gt=0"`
}

// Load reads the dotenv file (if any), parses the environment and validates
// the result. An empty path means ".env"; a missing default file is ignored.
func Load(dotenvPath string) (Config, error) {
	if err := loadDotenv(dotenvPath); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LockBackend = strings.ToLower(cfg.LockBackend)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotenv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to Info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Locker builds the event lock for the configured backend. The returned
// close function releases backend connections.
func (c Config) Locker() (lock.Locker, func() error, error) {
	switch c.LockBackend {
	case LockLocal, "":
		return lock.NewKeyed(), func() error { return nil }, nil
	case LockRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		l := lock.NewRedis(rdb, lock.WithTTL(c.LockTTL), lock.WithPollInterval(c.LockPoll))
		return l, rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", c.LockBackend)
	}
}
