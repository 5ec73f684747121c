package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"neupages/internal/bootstrap/logging"
	"neupages/internal/errs"
	"neupages/internal/infrastructure/fsatomic"
	"neupages/internal/ports"
)

const (
	manifestVersion = 1
	manifestName    = "manifest.json"
	lockName        = "manifest.lock"

	lockRetryDelay = 25 * time.Millisecond
	lockWaitLimit  = 5 * time.Second
	lockStaleAfter = 30 * time.Second
)

// manifestDocument is the on-disk manifest form.
type manifestDocument struct {
	Version     int       `json:"version"`
	ItemIDs     []string  `json:"item_ids"`
	LastUpdated time.Time `json:"last_updated"`
}

// Tracker is the append/merge log of every item id ever scheduled.
// Concurrent merges are serialized behind an atomically created lock file;
// the manifest itself is always replaced by whole-file rename, so Read never
// blocks and never observes a partial write.
type Tracker struct {
	dir string
	now func() time.Time
}

var _ ports.Manifest = (*Tracker)(nil)

func NewTracker(dir string) *Tracker {
	return &Tracker{
		dir: dir,
		now: time.Now,
	}
}

func (t *Tracker) path() string {
	return filepath.Join(t.dir, manifestName)
}

func (t *Tracker) lockPath() string {
	return filepath.Join(t.dir, lockName)
}

// Merge unions itemIDs into the manifest under the merge lock. The result
// of any merge sequence is a superset of every set ever merged.
func (t *Tracker) Merge(ctx context.Context, itemIDs []string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if len(itemIDs) == 0 {
		return nil
	}

	if err := t.acquireLock(ctx); err != nil {
		return errs.Wrap(err, "acquire manifest lock")
	}
	defer t.releaseLock(ctx)

	current := t.loadForMerge(ctx)
	for _, id := range itemIDs {
		if id != "" {
			current[id] = struct{}{}
		}
	}

	merged := make([]string, 0, len(current))
	for id := range current {
		merged = append(merged, id)
	}
	sort.Strings(merged)

	raw, err := json.MarshalIndent(manifestDocument{
		Version:     manifestVersion,
		ItemIDs:     merged,
		LastUpdated: t.now().UTC(),
	}, "", "  ")
	if err != nil {
		return errs.Wrap(err, "encode manifest")
	}

	if err := fsatomic.WriteFile(t.path(), raw, 0o644); err != nil {
		return errs.Wrap(err, "write manifest")
	}
	return nil
}

// Read returns the last durably merged id set. A missing manifest is an
// empty set; a corrupt one degrades to empty with a warning, matching the
// cache read policy of never failing the caller over unreadable state.
func (t *Tracker) Read(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	ids := t.load(ctx)
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)
	return sorted, nil
}

func (t *Tracker) load(ctx context.Context) map[string]struct{} {
	ids := make(map[string]struct{})

	raw, err := os.ReadFile(t.path())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn(ctx, "manifest unreadable, treating as empty", slog.Any("err", errs.Loggable(err)))
		}
		return ids
	}

	var doc manifestDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		logging.Warn(ctx, "manifest corrupt, treating as empty", slog.Any("err", errs.Loggable(err)))
		return ids
	}

	for _, id := range doc.ItemIDs {
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func (t *Tracker) loadForMerge(ctx context.Context) map[string]struct{} {
	return t.load(ctx)
}

// acquireLock serializes merges via O_CREATE|O_EXCL, the same atomic
// primitive the queue relies on. A lock left behind by a crashed merger is
// taken over once it is old enough.
func (t *Tracker) acquireLock(ctx context.Context) error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return errs.Wrap(err, "create manifest directory")
	}

	deadline := t.now().Add(lockWaitLimit)
	for {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(err, "check context")
		}

		file, err := os.OpenFile(t.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			file.Close()
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return errs.Wrap(err, "create lock file")
		}

		if info, statErr := os.Stat(t.lockPath()); statErr == nil {
			if t.now().Sub(info.ModTime()) > lockStaleAfter {
				t.takeOverStaleLock(ctx)
				continue
			}
		}

		if t.now().After(deadline) {
			return errors.New("timed out waiting for manifest lock")
		}
		time.Sleep(lockRetryDelay)
	}
}

// takeOverStaleLock discards a lock left behind by a crashed merger. The lock
// is renamed aside first so only one waiter can claim it, then its age is
// re-checked before removal: a fresh lock that replaced the stale one between
// the caller's stat and the rename is handed straight back.
func (t *Tracker) takeOverStaleLock(ctx context.Context) {
	stolen := t.lockPath() + ".stale-" + uuid.NewString()
	if err := os.Rename(t.lockPath(), stolen); err != nil {
		// Another waiter got there first.
		return
	}

	if info, err := os.Stat(stolen); err == nil && t.now().Sub(info.ModTime()) > lockStaleAfter {
		logging.Warn(ctx, "removing stale manifest lock", slog.String("path", t.lockPath()))
		os.Remove(stolen)
		return
	}
	os.Rename(stolen, t.lockPath())
}

func (t *Tracker) releaseLock(ctx context.Context) {
	if err := os.Remove(t.lockPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn(ctx, "release manifest lock failed", slog.Any("err", errs.Loggable(err)))
	}
}
