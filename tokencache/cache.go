package tokencache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultSize is the maximum number of tokens held. 15000 tokens use less
	// than 10MB of memory.
	DefaultSize = 15000
	// DefaultTTL is how long a token is cached for. This is a minute less than
	// GitHub's token lifetime, so a cached token is never served after the real
	// one expires.
	DefaultTTL = 59 * time.Minute
)

// CredentialCache is capable of storing and retrieving encoded installation
// tokens by cache key. Cache misses are _not_ considered an error, and are
// returned as ("", false, nil). Implementations should be safe for concurrent
// use.
type CredentialCache interface {
	// Get returns the value stored for key.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key, value string) error
}

// Cache is an in-memory CredentialCache bounded to DefaultSize entries. The
// least recently used entry is evicted when full, and entries expire DefaultTTL
// after they were set. A Cache should be owned by a single client, it must not
// be shared between clients for different apps.
type Cache struct {
	lru *expirable.LRU[string, string]
}

var _ CredentialCache = (*Cache)(nil)

// New creates an empty Cache. The Cache starts a goroutine that sweeps expired
// entries, which runs for the life of the process. Create one Cache per client
// and reuse it, rather than one per request.
func New() *Cache {
	return newCache(DefaultSize, DefaultTTL)
}

func newCache(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *Cache) Set(_ context.Context, key, value string) error {
	c.lru.Add(key, value)
	return nil
}

// Len returns the number of entries held, which may include expired entries
// that are yet to be swept.
func (c *Cache) Len() int {
	return c.lru.Len()
}
