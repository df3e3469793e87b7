package engine

import "context"

// Rule is a named, independently executable unit of automation work.
//
// Execute returns nil on success and an error on failure. Implementations may
// also panic on unrecoverable errors; the Engine recovers at the per-rule
// boundary and converts both into failure outcomes, so rules do not need to
// guard their own panics for the bookkeeping to stay correct. They must,
// however, release any acquired resources (file handles, processes, sockets)
// on every exit path, and must not leave partial state visible to other
// rules: each rule owns only its own side effects.
type Rule interface {
	// Name returns the rule's unique name within one Engine instance.
	Name() string

	// Enabled reports whether the rule participates in execution passes.
	Enabled() bool

	// SetEnabled toggles the rule's participation. Disabled rules stay
	// registered and keep their statistics.
	SetEnabled(enabled bool)

	// Execute performs the rule's work. The context carries cancellation
	// for callers that impose deadlines; the Engine itself does not.
	Execute(ctx context.Context) error
}
