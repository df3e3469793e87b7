package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a single pass over all enabled rules",
		Long: `Execute every enabled rule once, concurrently, and report the outcome.

The command exits non-zero when any rule fails. Disabled rules are skipped
and do not affect the result.`,
		Example: `  # Run one pass with the default config
  autoflow run

  # Run against a specific config file
  autoflow run --config /etc/autoflow/autoflow.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _, eng, err := buildEngine()
			if err != nil {
				return err
			}

			store, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				eng.WithRecorder(store)
			}

			log.Info().Int("rules", len(eng.Rules())).Msg("Starting execution pass")

			ok := eng.ExecuteAll(ctx)

			for _, rule := range eng.Rules() {
				stats := eng.Stats(rule.Name())
				switch {
				case !rule.Enabled():
					fmt.Printf("  - %-24s skipped (disabled)\n", rule.Name())
				case stats.LastSuccess:
					fmt.Printf("  ✓ %-24s succeeded in %s\n", rule.Name(), stats.Duration)
				default:
					fmt.Printf("  ✗ %-24s failed in %s: %s\n", rule.Name(), stats.Duration, stats.LastError)
				}
			}

			if !ok {
				return fmt.Errorf("pass completed with failures")
			}
			fmt.Println("\nPass completed successfully")
			return nil
		},
	}

	return cmd
}
