package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
app:
  name: neupages
  env: test
neuprint:
  server: https://neuprint.example.org
  dataset: manc:v1.0
output:
  dir: /tmp/pages
cache:
  ttl: 12h
queue:
  poll_interval: 500ms
`)

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NeuPrint.Server != "https://neuprint.example.org" {
		t.Fatalf("NeuPrint.Server = %q", cfg.NeuPrint.Server)
	}
	if cfg.NeuPrint.Dataset != "manc:v1.0" {
		t.Fatalf("NeuPrint.Dataset = %q", cfg.NeuPrint.Dataset)
	}
	if cfg.Cache.TTL != 12*time.Hour {
		t.Fatalf("Cache.TTL = %v, want 12h", cfg.Cache.TTL)
	}
	if cfg.Queue.PollInterval != 500*time.Millisecond {
		t.Fatalf("Queue.PollInterval = %v, want 500ms", cfg.Queue.PollInterval)
	}
}

func TestLoadDerivesCacheAndQueueDirs(t *testing.T) {
	path := writeConfigFile(t, `
output:
  dir: /data/pages
`)

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join("/data/pages", ".cache"); cfg.Cache.Dir != want {
		t.Fatalf("Cache.Dir = %q, want %q", cfg.Cache.Dir, want)
	}
	if want := filepath.Join("/data/pages", ".queue"); cfg.Queue.Dir != want {
		t.Fatalf("Queue.Dir = %q, want %q", cfg.Queue.Dir, want)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
output:
  dir: out
`)

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NeuPrint.Server != "https://neuprint.janelia.org" {
		t.Fatalf("NeuPrint.Server = %q, want default", cfg.NeuPrint.Server)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Fatalf("Cache.TTL = %v, want default 24h", cfg.Cache.TTL)
	}
	if cfg.Cache.MemoryMaxEntries != 512 {
		t.Fatalf("Cache.MemoryMaxEntries = %d, want default 512", cfg.Cache.MemoryMaxEntries)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NP_NEUPRINT_DATASET", "optic-lobe:v1.0")

	path := writeConfigFile(t, `
output:
  dir: out
neuprint:
  dataset: hemibrain:v1.2.1
`)

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NeuPrint.Dataset != "optic-lobe:v1.0" {
		t.Fatalf("NeuPrint.Dataset = %q, want env override", cfg.NeuPrint.Dataset)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("Load() error = nil, want read failure for explicit path")
	}
}
