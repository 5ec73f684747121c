package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEntryStorePutThenGet(t *testing.T) {
	store := NewEntryStore(t.TempDir())
	ctx := context.Background()

	if err := store.Put(ctx, "page:v1:hemibrain:KCab", []byte(`{"n":1}`), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := store.Get(ctx, "page:v1:hemibrain:KCab")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatalf("Get() found = false, want true")
	}
	if !bytes.Equal(got, []byte(`{"n":1}`)) {
		t.Fatalf("Get() = %q, want %q", got, `{"n":1}`)
	}
}

func TestEntryStoreSurvivesNewStoreInstance(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	if err := NewEntryStore(dir).Put(ctx, "k", []byte("durable"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// A fresh store over the same directory models a process restart.
	got, found, err := NewEntryStore(dir).Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || string(got) != "durable" {
		t.Fatalf("Get() = %q, %v, want %q, true", got, found, "durable")
	}
}

func TestEntryStoreMissOnUnknownKey(t *testing.T) {
	store := NewEntryStore(t.TempDir())

	_, found, err := store.Get(context.Background(), "never-written")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Fatalf("Get() found = true, want false")
	}
}

func TestEntryStoreExpiry(t *testing.T) {
	store := NewEntryStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	if err := store.Put(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	store.now = func() time.Time { return base.Add(59 * time.Minute) }
	if _, found, _ := store.Get(ctx, "k"); !found {
		t.Fatalf("Get() before expiry found = false, want true")
	}

	// Exactly at written_at + ttl the entry is already expired.
	store.now = func() time.Time { return base.Add(time.Hour) }
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Fatalf("Get() at expiry found = true, want false")
	}
}

func TestEntryStoreSubSecondTTLExpires(t *testing.T) {
	store := NewEntryStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	if err := store.Put(ctx, "k", []byte("v"), 500*time.Millisecond); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	store.now = func() time.Time { return base.Add(400 * time.Millisecond) }
	if _, found, _ := store.Get(ctx, "k"); !found {
		t.Fatalf("Get() before expiry found = false, want true")
	}

	store.now = func() time.Time { return base.Add(time.Hour) }
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Fatalf("Get() long after a 500ms ttl found = true, want false")
	}
}

func TestEntryStoreZeroTTLNeverExpires(t *testing.T) {
	store := NewEntryStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if err := store.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	store.now = func() time.Time { return base.Add(1000 * time.Hour) }
	if _, found, _ := store.Get(ctx, "k"); !found {
		t.Fatalf("Get() found = false, want true for zero ttl")
	}
}

func TestEntryStoreOverwriteResetsTTL(t *testing.T) {
	store := NewEntryStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if err := store.Put(ctx, "k", []byte("old"), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	store.now = func() time.Time { return base.Add(50 * time.Minute) }
	if err := store.Put(ctx, "k", []byte("new"), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	store.now = func() time.Time { return base.Add(90 * time.Minute) }
	got, found, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || string(got) != "new" {
		t.Fatalf("Get() = %q, %v, want %q, true", got, found, "new")
	}
}

func TestEntryStoreCorruptMetaIsMiss(t *testing.T) {
	dir := t.TempDir()
	store := NewEntryStore(dir)
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	metaPath := filepath.Join(dir, HashKey("k")+metaSuffix)
	if err := os.WriteFile(metaPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt meta: %v", err)
	}

	_, found, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v, want degraded miss", err)
	}
	if found {
		t.Fatalf("Get() found = true, want false after corruption")
	}
}

func TestEntryStoreMissingValueIsMiss(t *testing.T) {
	dir := t.TempDir()
	store := NewEntryStore(dir)
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := os.Remove(filepath.Join(dir, HashKey("k")+valueSuffix)); err != nil {
		t.Fatalf("remove value: %v", err)
	}

	_, found, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v, want degraded miss", err)
	}
	if found {
		t.Fatalf("Get() found = true, want false with value file gone")
	}
}

func TestEntryStoreInvalidate(t *testing.T) {
	store := NewEntryStore(t.TempDir())
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Fatalf("Get() found = true after invalidate")
	}

	// Invalidating a key that was never written is not an error.
	if err := store.Invalidate(ctx, "absent"); err != nil {
		t.Fatalf("Invalidate(absent) error = %v", err)
	}
}

func TestEntryStoreStats(t *testing.T) {
	store := NewEntryStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, key, []byte("0123456789"), time.Hour); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	count, valueBytes, metaBytes, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("Stats() count = %d, want 3", count)
	}
	if valueBytes != 30 {
		t.Fatalf("Stats() valueBytes = %d, want 30", valueBytes)
	}
	if metaBytes == 0 {
		t.Fatalf("Stats() metaBytes = 0, want > 0")
	}
}

func TestEntryStoreKeysListsCommittedEntries(t *testing.T) {
	dir := t.TempDir()
	store := NewEntryStore(dir)
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if err := store.Put(ctx, key, []byte("v"), time.Hour); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}
	// An orphaned value file without its meta is not a committed entry.
	if err := os.WriteFile(filepath.Join(dir, HashKey("orphan")+valueSuffix), []byte("v"), 0o644); err != nil {
		t.Fatalf("write orphan value: %v", err)
	}

	hashes, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("Keys() = %v, want 2 committed entries", hashes)
	}
	for _, hash := range hashes {
		if hash != HashKey("a") && hash != HashKey("b") {
			t.Fatalf("Keys() returned unexpected hash %q", hash)
		}
	}
}

func TestEntryStoreStatsMissingDir(t *testing.T) {
	store := NewEntryStore(filepath.Join(t.TempDir(), "never-created"))

	count, valueBytes, metaBytes, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if count != 0 || valueBytes != 0 || metaBytes != 0 {
		t.Fatalf("Stats() = %d, %d, %d, want zeros", count, valueBytes, metaBytes)
	}
}

func TestHashKeyIsStableHex(t *testing.T) {
	a := HashKey("page:v1:hemibrain:KCab")
	b := HashKey("page:v1:hemibrain:KCab")
	if a != b {
		t.Fatalf("HashKey not deterministic: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("HashKey length = %d, want 64", len(a))
	}
	if a == HashKey("page:v1:hemibrain:KCg") {
		t.Fatalf("distinct keys hashed to the same value")
	}
	for _, r := range a {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("HashKey %q contains non-hex rune %q", a, r)
		}
	}
}
