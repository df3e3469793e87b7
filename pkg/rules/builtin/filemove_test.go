package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates a file with the given content, creating parent
// directories as needed.
func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// exists reports whether a path exists.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TestFileMoveExtensionFilter verifies only matching files are moved.
func TestFileMoveExtensionFilter(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "report.csv"), "a,b\n")
	writeFile(t, filepath.Join(source, "notes.txt"), "keep me\n")

	rule, err := NewFileMoveRule("move-csv", map[string]any{
		"source":     source,
		"target":     target,
		"extensions": []string{"csv"}, // no leading dot, gets normalized
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if !exists(filepath.Join(target, "report.csv")) {
		t.Error("report.csv should have been moved to target")
	}
	if exists(filepath.Join(source, "report.csv")) {
		t.Error("report.csv should no longer be in source")
	}
	if !exists(filepath.Join(source, "notes.txt")) {
		t.Error("notes.txt should have stayed in source")
	}
}

// TestFileMoveNoFilter verifies all files move when no filter is set.
func TestFileMoveNoFilter(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "a.csv"), "a")
	writeFile(t, filepath.Join(source, "b.txt"), "b")

	rule, err := NewFileMoveRule("move-all", map[string]any{
		"source": source,
		"target": target,
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	for _, name := range []string{"a.csv", "b.txt"} {
		if !exists(filepath.Join(target, name)) {
			t.Errorf("%s should have been moved", name)
		}
	}
}

// TestFileMoveRecursive verifies subdirectory layout is preserved.
func TestFileMoveRecursive(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(source, "top.csv"), "1")
	writeFile(t, filepath.Join(source, "sub", "nested.csv"), "2")

	rule, err := NewFileMoveRule("move-deep", map[string]any{
		"source":    source,
		"target":    target,
		"recursive": true,
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if !exists(filepath.Join(target, "top.csv")) {
		t.Error("top.csv should have been moved")
	}
	if !exists(filepath.Join(target, "sub", "nested.csv")) {
		t.Error("sub/nested.csv should have been moved with its layout")
	}
}

// TestFileMoveMissingSource verifies a missing source directory fails the
// rule without side effects.
func TestFileMoveMissingSource(t *testing.T) {
	rule, err := NewFileMoveRule("move-nowhere", map[string]any{
		"source": filepath.Join(t.TempDir(), "does-not-exist"),
		"target": t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err == nil {
		t.Error("missing source should fail the rule")
	}
}

// TestFileMoveSettingsValidation verifies construction rejects incomplete
// settings.
func TestFileMoveSettingsValidation(t *testing.T) {
	_, err := NewFileMoveRule("bad", map[string]any{"source": "/tmp/in"})
	if err == nil {
		t.Error("missing target should be rejected at construction")
	}
}
