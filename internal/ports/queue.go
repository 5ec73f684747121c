package ports

import (
	"context"
	"time"
)

// WorkDescriptor is one unit of queued work. Identity is ItemID; the payload
// is an opaque, versioned blob decoded by the domain layer.
type WorkDescriptor struct {
	ItemID     string
	Payload    []byte
	EnqueuedAt time.Time
}

// Queue is the directory-backed collection of pending work descriptors.
type Queue interface {
	// Enqueue writes a pending descriptor. It reports false when the item is
	// already pending or claimed, in which case the call is a no-op.
	Enqueue(ctx context.Context, itemID string, payload []byte) (bool, error)
	ListPending(ctx context.Context) ([]string, error)
	Size(ctx context.Context) (int, error)
	Status(ctx context.Context) (QueueStatus, error)
}

type QueueStatus struct {
	Pending          int
	Claimed          int
	OldestPendingAge time.Duration
	OldestClaimedAge time.Duration
}

// Claims hands pending descriptors to exactly one worker at a time.
type Claims interface {
	// ClaimOne claims some pending descriptor, or returns nil when none are
	// left. Losing a claim race to another worker is not an error; the next
	// pending descriptor is tried instead.
	ClaimOne(ctx context.Context) (*WorkDescriptor, error)
	// Complete deletes the claimed descriptor. Idempotent.
	Complete(ctx context.Context, itemID string) error
	// Release returns a claimed descriptor to pending for retry. Idempotent.
	Release(ctx context.Context, itemID string) error
	// RecoverStale releases claimed descriptors whose claim file has not been
	// touched for at least olderThan, returning the recovered item ids.
	RecoverStale(ctx context.Context, olderThan time.Duration) ([]string, error)
}

// QueueWatcher lets an idle worker block until new work may have arrived.
type QueueWatcher interface {
	Wait(ctx context.Context) error
	Close() error
}
