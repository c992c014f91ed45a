package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// RunLock is a cross-instance lease guarding the destructive sync run. The
// lease is acquired with SET NX and expires on its own should a holder die
// mid-run.
type RunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRunLock builds a lease around the shared redis client.
func NewRunLock(r *Redis, key string, ttl time.Duration) *RunLock {
	return &RunLock{client: r.Client, key: key, ttl: ttl}
}

// Acquire attempts to take the lease. False means another run holds it.
func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	if l == nil || l.client == nil {
		// No redis configured: fall back to in-process exclusivity only.
		return true, nil
	}
	return l.client.SetNX(ctx, l.key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

// Release drops the lease.
func (l *RunLock) Release(ctx context.Context) {
	if l == nil || l.client == nil {
		return
	}
	_ = l.client.Del(ctx, l.key).Err()
}
