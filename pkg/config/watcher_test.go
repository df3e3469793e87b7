package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWatcherSignalsOnWrite verifies a config write produces one event.
func TestWatcherSignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoflow.yaml")
	if err := os.WriteFile(path, []byte("rules: []\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("rules: []\n# changed\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case <-w.Events():
	case <-time.After(3 * time.Second):
		t.Fatal("no change event within deadline")
	}
}

// TestWatcherIgnoresSiblings verifies writes to other files in the same
// directory do not signal.
func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoflow.yaml")
	if err := os.WriteFile(path, []byte("rules: []\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write sibling: %v", err)
	}

	select {
	case <-w.Events():
		t.Fatal("sibling write should not signal")
	case <-time.After(500 * time.Millisecond):
	}
}
