package rules

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/autoflow/autoflow/pkg/engine"
)

// noopRule is a minimal rule for factory tests.
type noopRule struct {
	*Base
}

func (noopRule) Execute(context.Context) error { return nil }

func noopConstructor(name string, _ map[string]any) (engine.Rule, error) {
	return noopRule{Base: NewBase(name)}, nil
}

// TestFactoryRegisterAndNew verifies the registration/construction round trip.
func TestFactoryRegisterAndNew(t *testing.T) {
	f := NewFactory()
	if err := f.Register("noop", noopConstructor); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	rule, err := f.New("noop", "my-rule", nil)
	if err != nil {
		t.Fatalf("failed to construct: %v", err)
	}
	if rule.Name() != "my-rule" {
		t.Errorf("want name my-rule, got %s", rule.Name())
	}
	if !rule.Enabled() {
		t.Error("rules should default to enabled")
	}
}

// TestFactoryRegisterValidation verifies registration error cases.
func TestFactoryRegisterValidation(t *testing.T) {
	f := NewFactory()

	if err := f.Register("", noopConstructor); err == nil {
		t.Error("empty type should be rejected")
	}
	if err := f.Register("noop", nil); err == nil {
		t.Error("nil constructor should be rejected")
	}
	if err := f.Register("noop", noopConstructor); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if err := f.Register("noop", noopConstructor); err == nil {
		t.Error("duplicate type should be rejected")
	}
}

// TestFactoryUnknownType verifies the recoverable unknown-type error.
func TestFactoryUnknownType(t *testing.T) {
	f := NewFactory()

	_, err := f.New("bogus", "x", nil)
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("want ErrUnknownType, got %v", err)
	}
}

// TestFactoryTypes verifies Types returns a sorted list.
func TestFactoryTypes(t *testing.T) {
	f := NewFactory()
	for _, typ := range []string{"zeta", "alpha", "mid"} {
		if err := f.Register(typ, noopConstructor); err != nil {
			t.Fatalf("failed to register %s: %v", typ, err)
		}
	}

	want := []string{"alpha", "mid", "zeta"}
	if got := f.Types(); !reflect.DeepEqual(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

// TestBaseEnabledToggle verifies enable/disable semantics.
func TestBaseEnabledToggle(t *testing.T) {
	b := NewBase("toggle")
	if !b.Enabled() {
		t.Fatal("new rules should be enabled")
	}
	b.SetEnabled(false)
	if b.Enabled() {
		t.Error("rule should be disabled")
	}
	b.SetEnabled(true)
	if !b.Enabled() {
		t.Error("rule should be re-enabled")
	}
}

// TestDecodeSettings verifies decoding and validation of settings bags.
func TestDecodeSettings(t *testing.T) {
	type dest struct {
		Path  string `yaml:"path" validate:"required"`
		Limit int    `yaml:"limit" validate:"gte=0"`
	}

	var ok dest
	err := DecodeSettings(map[string]any{"path": "/tmp/in", "limit": 3}, &ok)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if ok.Path != "/tmp/in" || ok.Limit != 3 {
		t.Errorf("decoded wrong values: %+v", ok)
	}

	var missing dest
	if err := DecodeSettings(map[string]any{"limit": 1}, &missing); err == nil {
		t.Error("missing required field should fail validation")
	}

	var negative dest
	if err := DecodeSettings(map[string]any{"path": "x", "limit": -1}, &negative); err == nil {
		t.Error("negative limit should fail validation")
	}
}
