// Package bootstrap assembles an engine from a validated configuration:
// it constructs each defined rule through the factory and registers the
// results in definition order.
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/autoflow/autoflow/pkg/config"
	"github.com/autoflow/autoflow/pkg/engine"
	"github.com/autoflow/autoflow/pkg/rules"
	"github.com/autoflow/autoflow/pkg/telemetry"
)

// Build constructs an engine from the configuration. Definitions with an
// unknown rule type are skipped with a warning so a config written for a
// newer build still loads; any other constructor error aborts the build.
func Build(cfg *config.Config, factory *rules.Factory, logger *telemetry.Logger) (*engine.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if factory == nil {
		return nil, fmt.Errorf("factory is nil")
	}

	log := logger.NewComponentLogger("bootstrap")
	eng := engine.New(logger)

	for _, def := range cfg.Rules {
		rule, err := factory.New(def.Type, def.Name, def.Settings)
		if err != nil {
			if errors.Is(err, rules.ErrUnknownType) {
				log.WithRule(def.Name).WithField("type", def.Type).Warn("skipping rule with unknown type")
				continue
			}
			return nil, fmt.Errorf("rule %q: %w", def.Name, err)
		}

		rule.SetEnabled(def.IsEnabled())

		if err := eng.Register(rule); err != nil {
			return nil, fmt.Errorf("rule %q: %w", def.Name, err)
		}
		log.WithRule(def.Name).WithField("type", def.Type).WithField("enabled", def.IsEnabled()).Debug("registered rule")
	}

	return eng, nil
}
