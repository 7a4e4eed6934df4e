package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// releaseScript deletes the lease only if it still carries our token, so an
// expired holder can never release a lease that was granted to someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by a Redis lease (SET key token NX PX ttl).
//
// The lease TTL must exceed the longest scope; an expired lease lets the next
// waiter in while the previous holder is still running.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// RedisOption configures a Redis locker.
type RedisOption func(*Redis)

// WithPrefix namespaces lease keys. Default: "ewm:lock".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = strings.Trim(prefix, ":") }
}

// WithTTL sets the lease lifetime. Default: 10s.
func WithTTL(d time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = d }
}

// WithPollInterval sets how often a waiter retries a held lease. Default: 25ms.
func WithPollInterval(d time.Duration) RedisOption {
	return func(r *Redis) { r.poll = d }
}

// NewRedis creates a Redis-backed locker.
func NewRedis(rdb redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:    rdb,
		prefix: "ewm:lock",
		ttl:    10 * time.Second,
		poll:   25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lock implements Locker.
//
// A held lease is waited on, paced by a rate limiter, until ctx is done.
// A Redis error ends the attempt immediately.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	if r == nil || r.rdb == nil {
		return nil, errors.New("redis lock: client is not configured")
	}

	leaseKey := r.prefix + ":" + key
	token := uuid.NewString()
	pacer := rate.NewLimiter(rate.Every(r.poll), 1)

	for {
		ok, err := r.rdb.SetNX(ctx, leaseKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %q: %w", key, err)
		}
		if ok {
			break
		}
		if err := pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("redis lock %q: %w", key, err)
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			relCtx, cancel := context.WithTimeout(context.Background(), r.ttl)
			defer cancel()
			if err := releaseScript.Run(relCtx, r.rdb, []string{leaseKey}, token).Err(); err != nil {
				slog.Warn("redis lock release failed", "key", leaseKey, "error", err)
			}
		})
	}, nil
}
