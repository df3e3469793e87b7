package builtin

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/autoflow/autoflow/pkg/engine"
	"github.com/autoflow/autoflow/pkg/rules"
)

// CommandSettings configures an external command rule.
type CommandSettings struct {
	// Command is the executable to run.
	Command string `yaml:"command" validate:"required"`

	// Args are passed to the command verbatim (no shell expansion).
	Args []string `yaml:"args"`

	// Dir is the working directory. Empty means the process's own.
	Dir string `yaml:"dir"`

	// TimeoutSeconds kills the command after the given number of seconds.
	// Zero means no timeout.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"gte=0"`
}

// CommandRule runs an external command and succeeds iff it exits zero.
type CommandRule struct {
	*rules.Base
	settings CommandSettings
}

// NewCommandRule constructs a command rule from a settings bag.
func NewCommandRule(name string, settings map[string]any) (engine.Rule, error) {
	var s CommandSettings
	if err := rules.DecodeSettings(settings, &s); err != nil {
		return nil, err
	}
	return &CommandRule{Base: rules.NewBase(name), settings: s}, nil
}

// Execute runs the command. CommandContext guarantees the process is
// reaped on every exit path, including timeout and cancellation.
func (r *CommandRule) Execute(ctx context.Context) error {
	if r.settings.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.settings.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.settings.Command, r.settings.Args...)
	cmd.Dir = r.settings.Dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("command %q aborted: %w", r.settings.Command, ctxErr)
		}
		return fmt.Errorf("command %q failed: %w (output: %s)",
			r.settings.Command, err, tail(output, 512))
	}
	return nil
}

// tail returns at most n trailing bytes of b as a string.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
