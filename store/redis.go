package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the token under a single key, optionally with a TTL so an
// abandoned session ages out of the backend on its own. A sibling meta
// key records the last write time; both move together in one
// transaction.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedis describes the newredis operation and its observable
// behavior. A zero ttl stores the token without expiry.
func NewRedis(client redis.UniversalClient, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = "gosession:token"
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

func (r *Redis) metaKey() string {
	return r.key + ":updated_at"
}

// Get describes the get operation and its observable behavior.
//
//	Performance: 1 Redis GET.
func (r *Redis) Get(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

// Set describes the set operation and its observable behavior.
//
//	Performance: 2 Redis commands in one transaction (SET token + SET meta).
func (r *Redis) Set(ctx context.Context, token string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, token, r.ttl)
		pipe.Set(ctx, r.metaKey(), now, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Clear describes the clear operation and its observable behavior.
//
//	Performance: 1 Redis DEL covering both keys.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key, r.metaKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// UpdatedAt returns when the stored token was last written, or false
// when nothing is stored or the meta key predates this layout.
func (r *Redis) UpdatedAt(ctx context.Context) (time.Time, bool, error) {
	val, err := r.client.Get(ctx, r.metaKey()).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, nil
	}
	return ts, true, nil
}
