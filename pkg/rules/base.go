package rules

import "sync/atomic"

// Base supplies the name and enabled half of the engine.Rule contract.
// Rule implementations embed a *Base and add Execute.
//
// The enabled flag is atomic so front ends can toggle a rule while the
// scheduler is firing passes.
type Base struct {
	name     string
	disabled atomic.Bool
}

// NewBase creates a Base with the given name, enabled by default.
func NewBase(name string) *Base {
	return &Base{name: name}
}

// Name returns the rule's name.
func (b *Base) Name() string {
	return b.name
}

// Enabled reports whether the rule participates in execution passes.
func (b *Base) Enabled() bool {
	return !b.disabled.Load()
}

// SetEnabled toggles the rule's participation in execution passes.
func (b *Base) SetEnabled(enabled bool) {
	b.disabled.Store(!enabled)
}
