package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PagePrefix namespaces cached responses.
const PagePrefix = "page:"

// CachedPage is a stored response.
type CachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageCache stores whole responses keyed by request path (including query).
// A nil Redis client turns every operation into a no-op miss.
type PageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPageCache returns a page cache with the given TTL.
func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	return &PageCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether responses are actually cached.
func (p *PageCache) Enabled() bool {
	return p != nil && p.rdb != nil && p.ttl > 0
}

// Key returns the storage key for a request path.
func (p *PageCache) Key(path string) string {
	return PagePrefix + path
}

// Get returns the cached response for path.
func (p *PageCache) Get(ctx context.Context, path string) (*CachedPage, bool) {
	if !p.Enabled() {
		return nil, false
	}
	raw, err := p.rdb.Get(ctx, p.Key(path)).Bytes()
	if err != nil {
		observability.RecordCacheLookup(false)
		return nil, false
	}
	var page CachedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		observability.RecordCacheLookup(false)
		return nil, false
	}
	observability.RecordCacheLookup(true)
	return &page, true
}

// Set stores a response for path until the TTL elapses.
func (p *PageCache) Set(ctx context.Context, path string, page *CachedPage) error {
	if !p.Enabled() {
		return nil
	}
	b, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return p.rdb.Set(ctx, p.Key(path), b, p.ttl).Err()
}

// Invalidate drops the cached responses for the given paths.
func (p *PageCache) Invalidate(ctx context.Context, paths ...string) error {
	if !p.Enabled() || len(paths) == 0 {
		return nil
	}
	keys := make([]string, len(paths))
	for i, path := range paths {
		keys[i] = p.Key(path)
	}
	return p.rdb.Del(ctx, keys...).Err()
}

// InvalidatePrefix drops every cached response whose path starts with prefix.
func (p *PageCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if !p.Enabled() {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, globEscaper.Replace(p.Key(prefix))+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := p.rdb.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// globEscaper quotes the characters SCAN MATCH treats as wildcards.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Clear drops every cached response.
func (p *PageCache) Clear(ctx context.Context) error {
	return p.InvalidatePrefix(ctx, "")
}
