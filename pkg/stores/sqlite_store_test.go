package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/autoflow/autoflow/pkg/engine"
)

// setupTestStore creates an initialized, migrated store backed by a
// temporary database file.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func testPass(id string, success bool) *Pass {
	started := time.Now().Add(-time.Second).UTC().Truncate(time.Millisecond)
	completed := time.Now().UTC().Truncate(time.Millisecond)
	return &Pass{
		ID:             id,
		StartedAt:      started,
		CompletedAt:    &completed,
		Success:        success,
		RulesTotal:     2,
		RulesSucceeded: 1,
		RulesFailed:    1,
		CreatedAt:      completed,
	}
}

// TestNewSQLiteStoreRequiresPath verifies an empty path is rejected.
func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("NewSQLiteStore() expected error for empty path")
	}
}

// TestStoreLifecycle verifies Init, Migrate, HealthCheck, and Close.
func TestStoreLifecycle(t *testing.T) {
	store := setupTestStore(t)

	if err := store.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	// Migrate is idempotent.
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

// TestCreateAndGetPass verifies a pass round trips through the store.
func TestCreateAndGetPass(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pass := testPass("pass-1", true)
	if err := store.CreatePass(ctx, pass); err != nil {
		t.Fatalf("CreatePass() error = %v", err)
	}

	got, err := store.GetPass(ctx, "pass-1")
	if err != nil {
		t.Fatalf("GetPass() error = %v", err)
	}
	if got.ID != pass.ID {
		t.Errorf("ID = %q, want %q", got.ID, pass.ID)
	}
	if !got.Success {
		t.Error("Success = false, want true")
	}
	if got.RulesTotal != 2 || got.RulesSucceeded != 1 || got.RulesFailed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", got.RulesTotal, got.RulesSucceeded, got.RulesFailed)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt = nil, want set")
	}
}

// TestGetPassNotFound verifies an unknown ID returns an error.
func TestGetPassNotFound(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.GetPass(context.Background(), "missing"); err == nil {
		t.Fatal("GetPass() expected error for unknown ID")
	}
}

// TestListPassesOrderAndLimit verifies newest-first ordering and the limit.
func TestListPassesOrderAndLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		pass := testPass("", i%2 == 0)
		pass.ID = string(rune('a' + i))
		pass.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.CreatePass(ctx, pass); err != nil {
			t.Fatalf("CreatePass() error = %v", err)
		}
	}

	passes, err := store.ListPasses(ctx, 3)
	if err != nil {
		t.Fatalf("ListPasses() error = %v", err)
	}
	if len(passes) != 3 {
		t.Fatalf("len(passes) = %d, want 3", len(passes))
	}
	if passes[0].ID != "e" || passes[1].ID != "d" || passes[2].ID != "c" {
		t.Errorf("order = %s,%s,%s, want e,d,c", passes[0].ID, passes[1].ID, passes[2].ID)
	}
}

// TestRuleResultsRoundTrip verifies rule results attach to their pass.
func TestRuleResultsRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreatePass(ctx, testPass("pass-1", false)); err != nil {
		t.Fatalf("CreatePass() error = %v", err)
	}

	msg := "disk full"
	results := []*RuleResult{
		{PassID: "pass-1", Rule: "beta", Success: false, DurationMS: 120, Error: &msg, CreatedAt: time.Now().UTC()},
		{PassID: "pass-1", Rule: "alpha", Success: true, DurationMS: 40, CreatedAt: time.Now().UTC()},
	}
	for _, r := range results {
		if err := store.AddRuleResult(ctx, r); err != nil {
			t.Fatalf("AddRuleResult() error = %v", err)
		}
		if r.ID == 0 {
			t.Error("AddRuleResult() did not set ID")
		}
	}

	got, err := store.GetRuleResults(ctx, "pass-1")
	if err != nil {
		t.Fatalf("GetRuleResults() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(got))
	}
	if got[0].Rule != "alpha" || got[1].Rule != "beta" {
		t.Errorf("order = %s,%s, want alpha,beta", got[0].Rule, got[1].Rule)
	}
	if got[1].Error == nil || *got[1].Error != "disk full" {
		t.Errorf("Error = %v, want disk full", got[1].Error)
	}
}

// TestRecordPass verifies the engine.Recorder adapter persists a full pass.
func TestRecordPass(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	record := engine.PassRecord{
		ID:          "pass-9",
		StartedAt:   time.Now().Add(-2 * time.Second).UTC(),
		CompletedAt: time.Now().UTC(),
		Success:     false,
		Results: []engine.RuleResult{
			{Rule: "mover", Success: true, Duration: 30 * time.Millisecond},
			{Rule: "checker", Success: false, Duration: 75 * time.Millisecond, Error: "2 of 10 rows failed check"},
		},
	}
	if err := store.RecordPass(ctx, record); err != nil {
		t.Fatalf("RecordPass() error = %v", err)
	}

	pass, err := store.GetPass(ctx, "pass-9")
	if err != nil {
		t.Fatalf("GetPass() error = %v", err)
	}
	if pass.Success {
		t.Error("Success = true, want false")
	}
	if pass.RulesTotal != 2 || pass.RulesSucceeded != 1 || pass.RulesFailed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", pass.RulesTotal, pass.RulesSucceeded, pass.RulesFailed)
	}

	results, err := store.GetRuleResults(ctx, "pass-9")
	if err != nil {
		t.Fatalf("GetRuleResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Rule == "checker" {
			if r.Error == nil || *r.Error == "" {
				t.Error("checker result missing error message")
			}
			if r.DurationMS != 75 {
				t.Errorf("DurationMS = %d, want 75", r.DurationMS)
			}
		}
	}
}
