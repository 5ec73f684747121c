package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"neupages/internal/bootstrap/logging"
	"neupages/internal/errs"
	"neupages/internal/ports"
)

// CompositeCache layers the process-local memory tier over the durable
// entry store. The store is authoritative; the memory tier holds freely
// evictable copies promoted on hit.
type CompositeCache struct {
	memory *MemoryCache
	store  *EntryStore
}

var (
	_ ports.Cache          = (*CompositeCache)(nil)
	_ ports.CacheInspector = (*CompositeCache)(nil)
)

func NewCompositeCache(memory *MemoryCache, store *EntryStore) *CompositeCache {
	return &CompositeCache{
		memory: memory,
		store:  store,
	}
}

// Get checks the memory tier first, then the durable store, promoting
// durable hits into memory. Durable-tier failures degrade to a miss.
func (c *CompositeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if ctx == nil {
		return nil, false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, false, errs.Wrap(err, "check context")
	}
	if key == "" {
		return nil, false, errors.New("key is required")
	}

	if value, ok := c.memory.Get(key); ok {
		return value, true, nil
	}

	value, found, err := c.store.Get(ctx, key)
	if err != nil {
		logging.Warn(ctx, "persistent cache get failed, treating as miss",
			slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}

	c.memory.Put(key, value)
	return value, true, nil
}

// Put writes to the durable store and opportunistically to memory. A
// persistence failure is logged but does not fail the caller; the value
// stays usable in-process via the memory tier.
func (c *CompositeCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if key == "" {
		return errors.New("key is required")
	}

	c.memory.Put(key, value)

	if err := c.store.Put(ctx, key, value, ttl); err != nil {
		logging.Warn(ctx, "persistent cache put failed, entry kept in memory only",
			slog.String("key", key), slog.Any("err", errs.Loggable(err)))
	}
	return nil
}

// Invalidate removes the entry from both tiers.
func (c *CompositeCache) Invalidate(ctx context.Context, key string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if key == "" {
		return errors.New("key is required")
	}

	c.memory.Delete(key)
	if err := c.store.Invalidate(ctx, key); err != nil {
		return errs.Wrap(err, "invalidate persistent entry")
	}
	return nil
}

func (c *CompositeCache) Stats(ctx context.Context) (ports.CacheStats, error) {
	if ctx == nil {
		return ports.CacheStats{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.CacheStats{}, errs.Wrap(err, "check context")
	}

	entries, valueBytes, metaBytes, err := c.store.Stats(ctx)
	if err != nil {
		return ports.CacheStats{}, errs.Wrap(err, "read persistent cache stats")
	}

	return ports.CacheStats{
		DiskEntries:   entries,
		ValueBytes:    valueBytes,
		MetaBytes:     metaBytes,
		MemoryEntries: c.memory.Len(),
		MemoryBytes:   c.memory.Bytes(),
	}, nil
}
