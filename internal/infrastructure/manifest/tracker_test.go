package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestMergeThenRead(t *testing.T) {
	tracker := NewTracker(t.TempDir())
	ctx := context.Background()

	if err := tracker.Merge(ctx, []string{"KCab", "LC10"}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	got, err := tracker.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := []string{"KCab", "LC10"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %v, want %v", got, want)
	}
}

func TestMergeUnionsAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	if err := NewTracker(dir).Merge(ctx, []string{"KCab", "LC10"}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	// A separate tracker instance models a later run of another process.
	if err := NewTracker(dir).Merge(ctx, []string{"LC10", "MBON01"}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	got, err := NewTracker(dir).Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := []string{"KCab", "LC10", "MBON01"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %v, want union %v", got, want)
	}
}

func TestMergeEmptyInputIsNoOp(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(dir)
	ctx := context.Background()

	if err := tracker.Merge(ctx, nil); err != nil {
		t.Fatalf("Merge(nil) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, manifestName)); !os.IsNotExist(err) {
		t.Fatalf("manifest written for empty merge, stat err = %v", err)
	}
}

func TestReadMissingManifestIsEmpty(t *testing.T) {
	tracker := NewTracker(filepath.Join(t.TempDir(), "never-created"))

	got, err := tracker.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read() = %v, want empty", got)
	}
}

func TestReadCorruptManifestIsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifestName), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt manifest: %v", err)
	}

	got, err := NewTracker(dir).Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read() = %v, want empty", got)
	}
}

func TestMergeOverCorruptManifestStartsFresh(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifestName), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt manifest: %v", err)
	}

	tracker := NewTracker(dir)
	ctx := context.Background()
	if err := tracker.Merge(ctx, []string{"KCab"}); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	got, err := tracker.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := []string{"KCab"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %v, want %v", got, want)
	}
}

func TestConcurrentMergesLoseNothing(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	const mergers = 8
	var wg sync.WaitGroup
	for i := 0; i < mergers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker := NewTracker(dir)
			if err := tracker.Merge(ctx, []string{fmt.Sprintf("type-%02d", i)}); err != nil {
				t.Errorf("merger %d: Merge() error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := NewTracker(dir).Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := make([]string, 0, mergers)
	for i := 0; i < mergers; i++ {
		want = append(want, fmt.Sprintf("type-%02d", i))
	}
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %v, want all of %v", got, want)
	}
}

func TestMergeNeverRemovesFreshLock(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(dir)

	// A lock currently held by a live merger.
	lockPath := filepath.Join(dir, lockName)
	if err := os.WriteFile(lockPath, nil, 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	// Jump the clock past the wait deadline but not past the staleness
	// horizon, so the merge gives up instead of waiting out the lock.
	base := time.Now()
	calls := 0
	tracker.now = func() time.Time {
		calls++
		if calls > 1 {
			return base.Add(10 * time.Second)
		}
		return base
	}

	if err := tracker.Merge(context.Background(), []string{"KCab"}); err == nil {
		t.Fatalf("Merge() error = nil, want lock wait timeout")
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("live lock removed: %v", err)
	}
}

func TestMergeTakesOverStaleLock(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(dir)
	ctx := context.Background()

	// A lock file left behind by a crashed merger, old enough to take over.
	lockPath := filepath.Join(dir, lockName)
	if err := os.WriteFile(lockPath, nil, 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatalf("backdate lock: %v", err)
	}

	if err := tracker.Merge(ctx, []string{"KCab"}); err != nil {
		t.Fatalf("Merge() error = %v, want stale lock takeover", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Fatalf("lock not released, stat err = %v", err)
	}
}
