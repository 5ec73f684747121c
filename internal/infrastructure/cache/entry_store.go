package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"neupages/internal/bootstrap/logging"
	"neupages/internal/errs"
	"neupages/internal/infrastructure/fsatomic"
)

const (
	valueSuffix = ".value"
	metaSuffix  = ".meta"
)

// entryMeta is the durable TTL metadata next to each value file. The TTL is
// stored at nanosecond granularity; zero means the entry never expires.
type entryMeta struct {
	Key       string        `json:"key"`
	WrittenAt time.Time     `json:"written_at"`
	TTL       time.Duration `json:"ttl_ns"`
}

// EntryStore is the durable cache tier: one {hash}.value plus {hash}.meta
// pair per key. All mutation is write-temp-then-rename, so concurrent
// processes sharing the directory never observe partial entries. The meta
// file is written last and acts as the commit point.
type EntryStore struct {
	dir string
	now func() time.Time
}

func NewEntryStore(dir string) *EntryStore {
	return &EntryStore{
		dir: dir,
		now: time.Now,
	}
}

func (s *EntryStore) valuePath(key string) string {
	return filepath.Join(s.dir, HashKey(key)+valueSuffix)
}

func (s *EntryStore) metaPath(key string) string {
	return filepath.Join(s.dir, HashKey(key)+metaSuffix)
}

// Put durably replaces the entry for key. Unlike reads, write failures are
// surfaced: a lost put would silently poison later lookups with stale data.
func (s *EntryStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if key == "" {
		return errors.New("key is required")
	}
	if ttl < 0 {
		return errors.New("ttl must not be negative")
	}

	meta := entryMeta{
		Key:       key,
		WrittenAt: s.now().UTC(),
		TTL:       ttl,
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return errs.Wrap(err, "encode cache metadata")
	}

	if err := fsatomic.WriteFile(s.valuePath(key), value, 0o644); err != nil {
		return errs.Wrap(err, "write cache value")
	}
	if err := fsatomic.WriteFile(s.metaPath(key), rawMeta, 0o644); err != nil {
		return errs.Wrap(err, "write cache metadata")
	}
	return nil
}

// Get returns the durable value for key. Absence, expiry, and any unreadable
// or unparseable entry all degrade to a miss; the cache is an optimization
// and must never fail its caller on the read path. Expired entries are left
// on disk for the next Put to overwrite.
func (s *EntryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if ctx == nil {
		return nil, false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, false, errs.Wrap(err, "check context")
	}
	if key == "" {
		return nil, false, errors.New("key is required")
	}

	rawMeta, err := os.ReadFile(s.metaPath(key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn(ctx, "cache metadata unreadable, treating as miss",
				slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		}
		return nil, false, nil
	}

	var meta entryMeta
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		logging.Warn(ctx, "cache metadata corrupt, treating as miss",
			slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		return nil, false, nil
	}

	if meta.TTL > 0 {
		expiresAt := meta.WrittenAt.Add(meta.TTL)
		if !s.now().Before(expiresAt) {
			return nil, false, nil
		}
	}

	value, err := os.ReadFile(s.valuePath(key))
	if err != nil {
		logging.Warn(ctx, "cache value unreadable, treating as miss",
			slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		return nil, false, nil
	}
	return value, true, nil
}

// Invalidate deletes the entry for key. Absence is not an error.
func (s *EntryStore) Invalidate(ctx context.Context, key string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if key == "" {
		return errors.New("key is required")
	}

	// Meta first: once it is gone the entry is a miss for every reader.
	if err := os.Remove(s.metaPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(err, "remove cache metadata")
	}
	if err := os.Remove(s.valuePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(err, "remove cache value")
	}
	return nil
}

// Keys lists the hashed keys of all committed entries, sorted. Only entries
// with a meta file count; an orphaned value file is not an entry.
func (s *EntryStore) Keys(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "read cache directory")
	}

	var hashes []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, metaSuffix) {
			hashes = append(hashes, strings.TrimSuffix(name, metaSuffix))
		}
	}
	sort.Strings(hashes)
	return hashes, nil
}

// Stats reports entry count and byte totals for operator commands.
func (s *EntryStore) Stats(ctx context.Context) (int, int64, int64, error) {
	if ctx == nil {
		return 0, 0, 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, 0, errs.Wrap(err, "check context")
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, 0, nil
		}
		return 0, 0, 0, errs.Wrap(err, "read cache directory")
	}

	var count int
	var valueBytes, metaBytes int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		info, err := entry.Info()
		if err != nil {
			continue
		}
		switch {
		case strings.HasSuffix(name, metaSuffix):
			count++
			metaBytes += info.Size()
		case strings.HasSuffix(name, valueSuffix):
			valueBytes += info.Size()
		}
	}
	return count, valueBytes, metaBytes, nil
}
