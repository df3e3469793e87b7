package commands

import (
	"context"
	"fmt"

	"github.com/autoflow/autoflow/pkg/bootstrap"
	"github.com/autoflow/autoflow/pkg/config"
	"github.com/autoflow/autoflow/pkg/engine"
	"github.com/autoflow/autoflow/pkg/rules/builtin"
	"github.com/autoflow/autoflow/pkg/stores"
	"github.com/autoflow/autoflow/pkg/telemetry"
)

// newRuntimeLogger builds the telemetry logger from the loaded config,
// letting --verbose force debug level.
func newRuntimeLogger(cfg *config.Config) (*telemetry.Logger, error) {
	logCfg := telemetry.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stderr",
	}
	if logCfg.Level == "" {
		logCfg.Level = "info"
	}
	if logCfg.Format == "" {
		logCfg.Format = "console"
	}
	if verbose {
		logCfg.Level = "debug"
	}
	return telemetry.NewLogger(logCfg)
}

// buildEngine loads the config, builds the logger, and assembles the engine
// with all built-in rule types registered.
func buildEngine() (*config.Config, *telemetry.Logger, *engine.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := newRuntimeLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	eng, err := bootstrap.Build(cfg, builtin.Defaults(), logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, eng, nil
}

// openHistory opens the pass-history store when the config enables it.
// Returns nil when history is disabled.
func openHistory(ctx context.Context, cfg *config.Config) (*stores.SQLiteStore, error) {
	if cfg.History.Path == "" {
		return nil, nil
	}
	store, err := stores.Open(ctx, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, nil
}
