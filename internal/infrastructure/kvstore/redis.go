package kvstore

import (
	"context"
	"errors"
	"fmt"

	"fap-client/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Redis stores values as plain redis strings without expiry.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// NewRedisWithURL connects using a redis:// URL and verifies reachability.
func NewRedisWithURL(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	r := NewRedis(redis.NewClient(opts))
	if err := r.Ping(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: remove %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
