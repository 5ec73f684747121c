// Package fsatomic provides the whole-file write primitive shared by the
// cache, queue, and manifest stores: write to a temp file in the target
// directory, then rename into place. Readers never observe partial writes,
// and concurrent writers of the same path last-write-win without corruption.
package fsatomic

import (
	"os"
	"path/filepath"

	"neupages/internal/errs"
)

// WriteFile atomically replaces path with data. The temp file is created in
// the same directory so the final rename stays on one filesystem.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create parent directory")
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errs.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(err, "close temp file")
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(err, "rename temp file into place")
	}
	return nil
}
