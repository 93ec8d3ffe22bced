package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	GroupKeyPrefix  = "group:%s"
	GroupChoicesKey = "groups:choices"
	BlacklistPrefix = "blacklist:%s"
	GroupTTL        = 10 * time.Minute
	GroupChoicesTTL = 5 * time.Minute
)

// GroupKey returns the cache key for a group looked up by slug.
func GroupKey(slug string) string {
	return fmt.Sprintf(GroupKeyPrefix, slug)
}

// BlacklistKey returns the key marking a revoked token ID.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistPrefix, jti)
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate
// dest, then stores dest with ttl. Redis failures fall through to fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate deletes the given keys, ignoring a missing client.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateGroup drops every cached view of a group.
func InvalidateGroup(ctx context.Context, slug string) {
	Invalidate(ctx, GroupKey(slug), GroupChoicesKey)
}

// Revoke marks a token ID as revoked until ttl elapses.
func Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil {
		return errors.New("redis client not initialized")
	}
	if ttl <= 0 {
		return nil
	}
	return client.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether a token ID has been revoked.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
