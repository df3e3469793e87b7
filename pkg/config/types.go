// Package config loads, validates, and watches the autoflow configuration
// file: an ordered list of rule definitions plus scheduler, history, and
// logging settings.
package config

// Config is the root of the autoflow configuration file.
type Config struct {
	// Scheduler configures interval execution.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// History configures optional pass-history persistence.
	History HistoryConfig `yaml:"history"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Rules is the ordered list of rule definitions. Order determines
	// registration (and thus listing) order, not execution order.
	Rules []RuleDefinition `yaml:"rules" validate:"dive"`
}

// RuleDefinition describes one rule to instantiate at bootstrap.
type RuleDefinition struct {
	// Type selects the concrete rule variant (e.g. "filemove").
	Type string `yaml:"type" validate:"required"`

	// Name is the rule's unique name.
	Name string `yaml:"name" validate:"required"`

	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled"`

	// Settings is the type-specific configuration bag.
	Settings map[string]any `yaml:"settings"`
}

// IsEnabled reports the effective enabled flag, defaulting to true.
func (d RuleDefinition) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// SchedulerConfig configures the interval scheduler.
type SchedulerConfig struct {
	// IntervalSeconds is the firing interval in whole seconds, minimum 1.
	IntervalSeconds int `yaml:"interval_seconds" validate:"omitempty,gte=1"`
}

// HistoryConfig configures optional pass-history persistence.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is the minimum log level.
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`

	// Format is console or json.
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}
