package builtin

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

// skipWithoutShell skips tests that need a POSIX shell.
func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// TestCommandSuccess verifies a zero exit code succeeds.
func TestCommandSuccess(t *testing.T) {
	skipWithoutShell(t)

	rule, err := NewCommandRule("ok", map[string]any{
		"command": "/bin/sh",
		"args":    []string{"-c", "exit 0"},
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err != nil {
		t.Errorf("execute failed: %v", err)
	}
}

// TestCommandFailureIncludesOutput verifies a non-zero exit fails with the
// command output attached.
func TestCommandFailureIncludesOutput(t *testing.T) {
	skipWithoutShell(t)

	rule, err := NewCommandRule("broken", map[string]any{
		"command": "/bin/sh",
		"args":    []string{"-c", "echo it went wrong >&2; exit 3"},
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	err = rule.Execute(context.Background())
	if err == nil {
		t.Fatal("non-zero exit should fail the rule")
	}
	if !strings.Contains(err.Error(), "it went wrong") {
		t.Errorf("error should include command output, got: %v", err)
	}
}

// TestCommandTimeout verifies a hung command is killed at the deadline.
func TestCommandTimeout(t *testing.T) {
	skipWithoutShell(t)

	rule, err := NewCommandRule("hang", map[string]any{
		"command":         "/bin/sh",
		"args":            []string{"-c", "sleep 30"},
		"timeout_seconds": 1,
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	err = rule.Execute(context.Background())
	if err == nil {
		t.Fatal("timed-out command should fail the rule")
	}
	if !strings.Contains(err.Error(), "aborted") {
		t.Errorf("want timeout abort error, got: %v", err)
	}
}

// TestCommandSettingsValidation verifies construction rejects incomplete or
// invalid settings.
func TestCommandSettingsValidation(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
	}{
		{"missing command", map[string]any{"args": []string{"-c", "true"}}},
		{"negative timeout", map[string]any{"command": "true", "timeout_seconds": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCommandRule("bad", tt.settings); err == nil {
				t.Error("want construction error")
			}
		})
	}
}
