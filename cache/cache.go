package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// Config controls cache sizing.
type Config struct {
	// MaxEntries caps the approximate entry count. Zero selects the
	// default of 16384.
	MaxEntries int64
}

// ReadCache is a ristretto-backed cache of credential-scoped read
// models. All entries cost 1; sizing is by count, not bytes.
type ReadCache[V any] struct {
	inner *ristretto.Cache[string, V]
}

// NewReadCache describes the newreadcache operation and its observable
// behavior.
func NewReadCache[V any](cfg Config) (*ReadCache[V], error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1 << 14
	}

	inner, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("build read cache: %w", err)
	}
	return &ReadCache[V]{inner: inner}, nil
}

// Get describes the get operation and its observable behavior.
func (c *ReadCache[V]) Get(key string) (V, bool) {
	return c.inner.Get(key)
}

// Set describes the set operation and its observable behavior.
// Admission is asynchronous; an entry may be visible only after the
// write buffer drains. Tests use [ReadCache.Wait].
func (c *ReadCache[V]) Set(key string, value V) {
	c.inner.Set(key, value, 1)
}

// PurgeAll drops every entry. The engine calls this on every token
// handover so no read model crosses a credential boundary.
func (c *ReadCache[V]) PurgeAll() {
	c.inner.Clear()
}

// Wait blocks until buffered writes have been applied.
func (c *ReadCache[V]) Wait() {
	c.inner.Wait()
}

// Close releases the cache. The cache must not be used afterwards.
func (c *ReadCache[V]) Close() {
	c.inner.Close()
}
