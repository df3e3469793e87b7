package builtin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestBulkMailSpoolsMessages verifies one rendered message per recipient.
func TestBulkMailSpoolsMessages(t *testing.T) {
	recipients := filepath.Join(t.TempDir(), "recipients.csv")
	writeFile(t, recipients, "email,name\nalice@example.com,Alice\nbob@example.com,Bob\n")
	outbox := filepath.Join(t.TempDir(), "outbox")

	rule, err := NewBulkMailRule("newsletter", map[string]any{
		"recipients": recipients,
		"subject":    "Hello {{.name}}",
		"body":       "Dear {{.name}},\nthis is the update.\n",
		"outbox":     outbox,
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	entries, err := os.ReadDir(outbox)
	if err != nil {
		t.Fatalf("failed to read outbox: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 spooled messages, got %d", len(entries))
	}

	raw, err := os.ReadFile(filepath.Join(outbox, entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	msg := string(raw)
	if !strings.Contains(msg, "To: alice@example.com") {
		t.Errorf("message missing To header: %q", msg)
	}
	if !strings.Contains(msg, "Subject: Hello Alice") {
		t.Errorf("message missing rendered subject: %q", msg)
	}
	if !strings.Contains(msg, "Dear Alice") {
		t.Errorf("message missing rendered body: %q", msg)
	}
}

// TestBulkMailMissingEmailColumn verifies the email column is required.
func TestBulkMailMissingEmailColumn(t *testing.T) {
	recipients := filepath.Join(t.TempDir(), "recipients.csv")
	writeFile(t, recipients, "name\nAlice\n")

	rule, err := NewBulkMailRule("newsletter", map[string]any{
		"recipients": recipients,
		"subject":    "hi",
		"body":       "there",
		"outbox":     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err == nil {
		t.Error("recipients without an email column should fail the rule")
	}
}

// TestBulkMailBadTemplate verifies template errors surface at construction.
func TestBulkMailBadTemplate(t *testing.T) {
	_, err := NewBulkMailRule("newsletter", map[string]any{
		"recipients": "r.csv",
		"subject":    "{{.name",
		"body":       "x",
		"outbox":     "o",
	})
	if err == nil {
		t.Error("unparsable template should fail construction")
	}
}

// TestBulkMailEmptyEmailRow verifies rows with an empty address are
// reported but do not abort the batch.
func TestBulkMailEmptyEmailRow(t *testing.T) {
	recipients := filepath.Join(t.TempDir(), "recipients.csv")
	writeFile(t, recipients, "email,name\n,Ghost\ncarol@example.com,Carol\n")
	outbox := filepath.Join(t.TempDir(), "outbox")

	rule, err := NewBulkMailRule("newsletter", map[string]any{
		"recipients": recipients,
		"subject":    "hi {{.name}}",
		"body":       "x",
		"outbox":     outbox,
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err == nil {
		t.Error("empty email row should be reported as an error")
	}

	entries, err := os.ReadDir(outbox)
	if err != nil {
		t.Fatalf("failed to read outbox: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("valid rows should still be spooled, got %d messages", len(entries))
	}
}

// TestDefaultsRegistersAllTypes verifies the default factory knows every
// builtin discriminator.
func TestDefaultsRegistersAllTypes(t *testing.T) {
	f := Defaults()

	want := []string{TypeBulkMail, TypeCommand, TypeDataCheck, TypeFileMove}
	got := f.Types()
	if len(got) != len(want) {
		t.Fatalf("want %d types, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("type %d: want %s, got %s", i, want[i], got[i])
		}
	}
}
