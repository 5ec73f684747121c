package queue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"neupages/internal/domain/report"
	"neupages/internal/errs"
	"neupages/internal/infrastructure/fsatomic"
	"neupages/internal/ports"
)

const (
	pendingSuffix = ".pending"
	claimedSuffix = ".claimed"
)

// FileQueue stores work descriptors as files in a shared directory. Queue
// state is derived entirely from file presence and suffix: {id}.pending is
// waiting, {id}.claimed is owned by one worker. There is no side table, so
// crash recovery needs nothing beyond inspecting the directory.
type FileQueue struct {
	dir string
	now func() time.Time
}

var _ ports.Queue = (*FileQueue)(nil)

func NewFileQueue(dir string) *FileQueue {
	return &FileQueue{
		dir: dir,
		now: time.Now,
	}
}

func (q *FileQueue) pendingPath(itemID string) string {
	return filepath.Join(q.dir, itemID+pendingSuffix)
}

func (q *FileQueue) claimedPath(itemID string) string {
	return filepath.Join(q.dir, itemID+claimedSuffix)
}

// Enqueue writes a pending descriptor for itemID. An item already pending or
// claimed is left untouched and reported via the bool: re-enqueueing is a
// deliberate no-op, never a silent overwrite.
func (q *FileQueue) Enqueue(ctx context.Context, itemID string, payload []byte) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return false, errs.Wrap(err, "check context")
	}
	if err := report.ValidateItemID(itemID); err != nil {
		return false, err
	}

	if q.exists(q.pendingPath(itemID)) || q.exists(q.claimedPath(itemID)) {
		return false, nil
	}

	raw, err := encodeDescriptor(itemID, payload, q.now())
	if err != nil {
		return false, err
	}
	if err := fsatomic.WriteFile(q.pendingPath(itemID), raw, 0o644); err != nil {
		return false, errs.Wrapf(err, "enqueue %s", itemID)
	}
	return true, nil
}

func (q *FileQueue) exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListPending returns the pending item ids. Ordering follows the directory
// listing and is best-effort only, never a correctness guarantee.
func (q *FileQueue) ListPending(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	entries, err := os.ReadDir(q.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "read queue directory")
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, pendingSuffix) {
			ids = append(ids, strings.TrimSuffix(name, pendingSuffix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (q *FileQueue) Size(ctx context.Context) (int, error) {
	ids, err := q.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (q *FileQueue) Status(ctx context.Context) (ports.QueueStatus, error) {
	if ctx == nil {
		return ports.QueueStatus{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.QueueStatus{}, errs.Wrap(err, "check context")
	}

	entries, err := os.ReadDir(q.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ports.QueueStatus{}, nil
		}
		return ports.QueueStatus{}, errs.Wrap(err, "read queue directory")
	}

	var status ports.QueueStatus
	now := q.now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var pending bool
		switch {
		case strings.HasSuffix(name, pendingSuffix):
			pending = true
			status.Pending++
		case strings.HasSuffix(name, claimedSuffix):
			status.Claimed++
		default:
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		if pending && age > status.OldestPendingAge {
			status.OldestPendingAge = age
		}
		if !pending && age > status.OldestClaimedAge {
			status.OldestClaimedAge = age
		}
	}
	return status, nil
}
