// Package rds provides a redis client for idempotency windows and short locks
package rds

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures redis connectivity
type Config struct {
	Addr string
	DB   int
}

// RDS is a thin wrapper around go-redis
type RDS struct {
	c *redis.Client
}

// Open creates a redis client
func Open(_ context.Context, cfg Config) (*RDS, error) {
	if cfg.Addr == "" {
		return nil, errors.New("rds: empty addr")
	}
	c := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	return &RDS{c: c}, nil
}

// SetNX sets key to val with ttl only when absent; reports whether it was set
func (r *RDS) SetNX(ctx context.Context, key, val string, ttlSeconds int) (bool, error) {
	if r == nil || r.c == nil {
		return false, errors.New("rds: nil client")
	}
	return r.c.SetNX(ctx, key, val, time.Duration(ttlSeconds)*time.Second).Result()
}

// Get returns the value and ok=false when the key is missing
func (r *RDS) Get(ctx context.Context, key string) (string, bool, error) {
	if r == nil || r.c == nil {
		return "", false, errors.New("rds: nil client")
	}
	v, err := r.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Del removes a key; missing keys are not an error
func (r *RDS) Del(ctx context.Context, key string) error {
	if r == nil || r.c == nil {
		return errors.New("rds: nil client")
	}
	return r.c.Del(ctx, key).Err()
}

// Ping verifies connectivity
func (r *RDS) Ping(ctx context.Context) error {
	if r == nil || r.c == nil {
		return errors.New("rds: nil client")
	}
	return r.c.Ping(ctx).Err()
}

// Close closes the client
func (r *RDS) Close() error {
	if r == nil || r.c == nil {
		return nil
	}
	return r.c.Close()
}
