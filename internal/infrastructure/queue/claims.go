package queue

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"neupages/internal/bootstrap/logging"
	"neupages/internal/errs"
	"neupages/internal/ports"
)

// ClaimOutcome is the explicit result of a single claim attempt. Losing a
// rename race is an expected outcome, not an error, so callers never have to
// tell an I/O fault from a race loss by inspecting error text.
type ClaimOutcome int

const (
	// Claimed means this caller now exclusively owns the descriptor.
	Claimed ClaimOutcome = iota
	// Conflict means another worker won the rename race for this item.
	Conflict
	// NotPending means no pending descriptor exists for the item.
	NotPending
)

// ClaimManager implements the pending -> claimed -> {done | pending} state
// machine on top of atomic rename. The rename is the linearization point:
// exactly one of any number of racing workers succeeds.
type ClaimManager struct {
	queue *FileQueue
	now   func() time.Time
}

var _ ports.Claims = (*ClaimManager)(nil)

func NewClaimManager(queue *FileQueue) *ClaimManager {
	return &ClaimManager{
		queue: queue,
		now:   time.Now,
	}
}

// TryClaim attempts to claim one specific pending item.
func (m *ClaimManager) TryClaim(ctx context.Context, itemID string) (ClaimOutcome, error) {
	if ctx == nil {
		return NotPending, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return NotPending, errs.Wrap(err, "check context")
	}
	if itemID == "" {
		return NotPending, errors.New("item id is required")
	}

	err := os.Rename(m.queue.pendingPath(itemID), m.queue.claimedPath(itemID))
	if err == nil {
		return Claimed, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		// Either a racing worker renamed it first or it was never pending.
		// The two cases are indistinguishable here and treated alike.
		return Conflict, nil
	}
	return NotPending, errs.Wrapf(err, "claim %s", itemID)
}

// ClaimOne claims some pending descriptor and returns it, or nil when no
// pending work exists. Race losses are folded into trying the next
// descriptor in the current listing.
func (m *ClaimManager) ClaimOne(ctx context.Context) (*ports.WorkDescriptor, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	ids, err := m.queue.ListPending(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list pending descriptors")
	}

	for _, itemID := range ids {
		outcome, err := m.TryClaim(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if outcome != Claimed {
			continue
		}

		descriptor, err := m.readClaimed(ctx, itemID)
		if err != nil {
			// The claim succeeded but the descriptor is unreadable. Release
			// it so the item is not stranded, then surface the fault.
			if releaseErr := m.Release(ctx, itemID); releaseErr != nil {
				logging.Warn(ctx, "release of unreadable descriptor failed",
					slog.String("item_id", itemID), slog.Any("err", errs.Loggable(releaseErr)))
			}
			return nil, errs.Wrapf(err, "read claimed descriptor %s", itemID)
		}
		return descriptor, nil
	}
	return nil, nil
}

func (m *ClaimManager) readClaimed(ctx context.Context, itemID string) (*ports.WorkDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	raw, err := os.ReadFile(m.queue.claimedPath(itemID))
	if err != nil {
		return nil, err
	}
	descriptor, err := decodeDescriptor(raw)
	if err != nil {
		return nil, err
	}
	return &descriptor, nil
}

// Complete deletes the claimed descriptor for itemID. Completing an item
// that is already gone is not an error.
func (m *ClaimManager) Complete(ctx context.Context, itemID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if itemID == "" {
		return errors.New("item id is required")
	}

	if err := os.Remove(m.queue.claimedPath(itemID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrapf(err, "complete %s", itemID)
	}
	return nil
}

// Release returns a claimed descriptor to pending, used on worker failure or
// for manual recovery of an orphaned claim. Releasing an item that is no
// longer claimed is a no-op.
func (m *ClaimManager) Release(ctx context.Context, itemID string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if itemID == "" {
		return errors.New("item id is required")
	}

	err := os.Rename(m.queue.claimedPath(itemID), m.queue.pendingPath(itemID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrapf(err, "release %s", itemID)
	}
	return nil
}

// RecoverStale releases every claimed descriptor whose claim file has not
// been modified for at least olderThan. This is the operator-facing sweep
// for claims orphaned by an unclean worker shutdown; it is never run
// implicitly per claim attempt.
func (m *ClaimManager) RecoverStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if olderThan <= 0 {
		return nil, errors.New("staleness threshold must be positive")
	}

	entries, err := os.ReadDir(m.queue.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "read queue directory")
	}

	now := m.now()
	var recovered []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), claimedSuffix) {
			continue
		}
		itemID := strings.TrimSuffix(entry.Name(), claimedSuffix)

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < olderThan {
			continue
		}

		if err := m.Release(ctx, itemID); err != nil {
			return recovered, err
		}
		logging.Info(ctx, "recovered orphaned claim", slog.String("item_id", itemID))
		recovered = append(recovered, itemID)
	}
	return recovered, nil
}
