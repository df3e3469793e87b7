package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autoflow/autoflow/pkg/config"
	"github.com/autoflow/autoflow/pkg/stores"
)

func newInitCommand() *cobra.Command {
	var withHistory bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter configuration file",
		Long: `Create a starter configuration file with an example rule for each
built-in type. Existing files are never overwritten.

With --with-history, a SQLite history database is created next to the
config file and wired into it.`,
		Example: `  # Create autoflow.yaml in the current directory
  autoflow init

  # Create a config with pass history enabled
  autoflow init --with-history

  # Create at a custom path
  autoflow init --config /etc/autoflow/autoflow.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("refusing to overwrite existing config: %s", configPath)
			}

			log.Info().Str("config", configPath).Msg("Initializing workspace")

			cfg := config.Default()
			cfg.Rules = []config.RuleDefinition{
				{
					Type: "filemove",
					Name: "archive-reports",
					Settings: map[string]any{
						"source":     "./inbox",
						"target":     "./archive",
						"extensions": []any{".pdf", ".csv"},
					},
				},
				{
					Type:    "command",
					Name:    "cleanup-tmp",
					Enabled: boolPtr(false),
					Settings: map[string]any{
						"command":         "find",
						"args":            []any{"/tmp/autoflow", "-mtime", "+7", "-delete"},
						"timeout_seconds": 60,
					},
				},
			}

			if withHistory {
				cfg.History.Path = "autoflow.db"
				store, err := stores.Open(ctx, cfg.History.Path)
				if err != nil {
					return err
				}
				defer store.Close()
				fmt.Printf("✓ Initialized history database: %s\n", cfg.History.Path)
			}

			if err := config.Save(configPath, cfg); err != nil {
				return err
			}
			fmt.Printf("✓ Created config file: %s\n", configPath)

			fmt.Printf("\nNext steps:\n")
			fmt.Printf("  1. Edit %s and adjust the example rules\n", configPath)
			fmt.Printf("  2. Check it:      autoflow validate\n")
			fmt.Printf("  3. Run one pass:  autoflow run\n")
			fmt.Printf("  4. Schedule:      autoflow schedule\n")

			return nil
		},
	}

	cmd.Flags().BoolVar(&withHistory, "with-history", false, "create and wire a SQLite history database")

	return cmd
}

func boolPtr(v bool) *bool { return &v }
