package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autoflow/autoflow/pkg/config"
	"github.com/autoflow/autoflow/pkg/rules"
	"github.com/autoflow/autoflow/pkg/rules/builtin"
)

func newValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Validate the configuration file without executing anything.

Beyond schema validation, every rule definition is constructed through the
rule factory so type-specific settings errors surface here instead of at
run time. Unknown rule types are warnings by default and errors with
--strict.`,
		Example: `  # Validate the default config
  autoflow validate

  # Treat unknown rule types as errors
  autoflow validate --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			factory := builtin.Defaults()
			var failures int
			for _, def := range cfg.Rules {
				_, err := factory.New(def.Type, def.Name, def.Settings)
				switch {
				case err == nil:
					fmt.Printf("  ✓ %s (%s)\n", def.Name, def.Type)
				case errors.Is(err, rules.ErrUnknownType) && !strict:
					fmt.Printf("  ? %s: unknown type %q (skipped at run time)\n", def.Name, def.Type)
				default:
					failures++
					fmt.Printf("  ✗ %s: %v\n", def.Name, err)
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d rule definitions are invalid", failures, len(cfg.Rules))
			}
			fmt.Printf("\n%s is valid (%d rules)\n", configPath, len(cfg.Rules))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat unknown rule types as errors")

	return cmd
}
