package fsatomic

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestWriteFileCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.json")

	if err := WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "data" {
		t.Fatalf("content = %q, want %q", got, "data")
	}
}

func TestWriteFileReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	if err := WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteFile(path, []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("content = %q, want %q", got, "new")
	}
}

func TestWriteFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFile(filepath.Join(dir, "out.json"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".tmp-") {
			t.Fatalf("temp file %s left behind", entry.Name())
		}
	}
}

func TestWriteFileConcurrentWritersNeverCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	// One of the writers wins; the survivor must be a complete write, never
	// an interleaving of both.
	var wg sync.WaitGroup
	for _, content := range []string{strings.Repeat("a", 4096), strings.Repeat("b", 4096)} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := WriteFile(path, []byte(content), 0o644); err != nil {
					t.Errorf("WriteFile() error = %v", err)
					return
				}
			}
		}(content)
	}
	wg.Wait()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(got) != 4096 {
		t.Fatalf("len = %d, want 4096", len(got))
	}
	if string(got) != strings.Repeat("a", 4096) && string(got) != strings.Repeat("b", 4096) {
		t.Fatalf("content interleaved writers")
	}
}
