package rules

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/autoflow/autoflow/pkg/engine"
)

// ErrUnknownType is returned (wrapped) by Factory.New for a type
// discriminator with no registered constructor. Bootstrappers treat it as a
// recoverable warning, not a crash.
var ErrUnknownType = errors.New("unknown rule type")

// Constructor builds a concrete rule from its name and type-specific
// settings. Constructors validate settings eagerly so configuration errors
// surface at bootstrap time, not mid-pass.
type Constructor func(name string, settings map[string]any) (engine.Rule, error)

// Factory maps type discriminators to rule constructors.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		constructors: make(map[string]Constructor),
	}
}

// Register adds a constructor for the given type discriminator.
func (f *Factory) Register(ruleType string, fn Constructor) error {
	if ruleType == "" {
		return fmt.Errorf("rule type is empty")
	}
	if fn == nil {
		return fmt.Errorf("constructor for %q is nil", ruleType)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.constructors[ruleType]; exists {
		return fmt.Errorf("rule type %q already registered", ruleType)
	}
	f.constructors[ruleType] = fn
	return nil
}

// New constructs a rule of the given type. Unknown types return an error
// wrapping ErrUnknownType.
func (f *Factory) New(ruleType, name string, settings map[string]any) (engine.Rule, error) {
	f.mu.RLock()
	fn, ok := f.constructors[ruleType]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, ruleType)
	}

	rule, err := fn(name, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to construct %q rule %q: %w", ruleType, name, err)
	}
	return rule, nil
}

// Types returns the registered type discriminators, sorted.
func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.constructors))
	for t := range f.constructors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
