package builtin

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

// newDataCheck builds a datacheck rule over the given CSV content.
func newDataCheck(t *testing.T, csvContent, expression string, header bool) *DataCheckRule {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.csv")
	writeFile(t, path, csvContent)

	rule, err := NewDataCheckRule("check", map[string]any{
		"path":       path,
		"expression": expression,
		"header":     header,
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}
	return rule.(*DataCheckRule)
}

// TestDataCheckAllRowsPass verifies a passing data set succeeds.
func TestDataCheckAllRowsPass(t *testing.T) {
	rule := newDataCheck(t,
		"name,age\nalice,34\nbob,51\n",
		`row.name != "" && int(row.age) >= 18`,
		true,
	)

	if err := rule.Execute(context.Background()); err != nil {
		t.Errorf("execute failed: %v", err)
	}
}

// TestDataCheckFailingRows verifies failing rows are counted and reported.
func TestDataCheckFailingRows(t *testing.T) {
	rule := newDataCheck(t,
		"name,age\nalice,34\nkid,12\nbob,51\ntoddler,2\n",
		`int(row.age) >= 18`,
		true,
	)

	err := rule.Execute(context.Background())
	if err == nil {
		t.Fatal("rows below the threshold should fail the rule")
	}
	if !strings.Contains(err.Error(), "2 of 4 rows") {
		t.Errorf("want '2 of 4 rows' in error, got: %v", err)
	}
}

// TestDataCheckNoHeader verifies positional column names.
func TestDataCheckNoHeader(t *testing.T) {
	rule := newDataCheck(t,
		"100\n250\n", `int(row.col0) > 50`, false,
	)

	if err := rule.Execute(context.Background()); err != nil {
		t.Errorf("execute failed: %v", err)
	}
}

// TestDataCheckEmptyFile verifies an empty file passes vacuously.
func TestDataCheckEmptyFile(t *testing.T) {
	rule := newDataCheck(t, "", `row.x == "y"`, true)

	if err := rule.Execute(context.Background()); err != nil {
		t.Errorf("empty file should pass, got: %v", err)
	}
}

// TestDataCheckNonBooleanExpression verifies a non-boolean result counts as
// failure.
func TestDataCheckNonBooleanExpression(t *testing.T) {
	rule := newDataCheck(t, "v\nx\n", `row.v`, true)

	if err := rule.Execute(context.Background()); err == nil {
		t.Error("non-boolean expression result should fail the rule")
	}
}

// TestDataCheckBadExpression verifies compile errors surface at construction.
func TestDataCheckBadExpression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	writeFile(t, path, "a\n1\n")

	_, err := NewDataCheckRule("check", map[string]any{
		"path":       path,
		"expression": `row.a >=`,
		"header":     true,
	})
	if err == nil {
		t.Error("invalid expression should fail construction")
	}
}

// TestDataCheckMissingFile verifies a missing data file fails the rule.
func TestDataCheckMissingFile(t *testing.T) {
	rule, err := NewDataCheckRule("check", map[string]any{
		"path":       filepath.Join(t.TempDir(), "absent.csv"),
		"expression": `true`,
	})
	if err != nil {
		t.Fatalf("failed to construct rule: %v", err)
	}

	if err := rule.Execute(context.Background()); err == nil {
		t.Error("missing file should fail the rule")
	}
}
