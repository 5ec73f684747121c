package ports

import (
	"context"
	"time"
)

// Cache defines the layered page-data cache consumed by usecases.
// Implementations treat values as opaque bytes; a zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type CacheStats struct {
	DiskEntries   int
	ValueBytes    int64
	MetaBytes     int64
	MemoryEntries int
	MemoryBytes   int64
}

// CacheInspector exposes read-only cache accounting for operator commands.
type CacheInspector interface {
	Stats(ctx context.Context) (CacheStats, error)
}
