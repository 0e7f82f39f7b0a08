package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const sharedKeyPrefix = "llm:response:"

// SharedCache is an optional cross-process tier consulted after a local miss.
type SharedCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheKey is the hex SHA-256 of the prompt and temperature. Neither the system
// instruction nor the JSON/plain-text mode is part of the key.
func CacheKey(prompt string, temperature float64) string {
	sum := sha256.Sum256([]byte(prompt + "_" + strconv.FormatFloat(temperature, 'f', -1, 64)))
	return hex.EncodeToString(sum[:])
}

// responseCache is a bounded, expiring LRU. The same key always maps to the
// same response, so concurrent writers racing on a key are harmless.
type responseCache struct {
	local     *expirable.LRU[string, map[string]any]
	shared    SharedCache
	sharedTTL time.Duration
}

func newResponseCache(size int, ttl time.Duration, shared SharedCache, sharedTTL time.Duration) *responseCache {
	return &responseCache{
		local:     expirable.NewLRU[string, map[string]any](size, nil, ttl),
		shared:    shared,
		sharedTTL: sharedTTL,
	}
}

func (c *responseCache) get(ctx context.Context, key string) (map[string]any, bool) {
	if v, ok := c.local.Get(key); ok {
		return cloneMap(v), true
	}
	if c.shared == nil {
		return nil, false
	}
	var v map[string]any
	hit, err := c.shared.Get(ctx, sharedKeyPrefix+key, &v)
	if err != nil || !hit || v == nil {
		return nil, false
	}
	c.local.Add(key, v)
	return cloneMap(v), true
}

func (c *responseCache) put(ctx context.Context, key string, value map[string]any) {
	c.local.Add(key, cloneMap(value))
	if c.shared != nil {
		_ = c.shared.Set(ctx, sharedKeyPrefix+key, value, c.sharedTTL)
	}
}

func (c *responseCache) len() int {
	return c.local.Len()
}

// cloneMap copies the top level so callers can add keys without touching cached state.
func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
