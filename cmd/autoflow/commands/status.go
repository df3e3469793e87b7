package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/autoflow/autoflow/pkg/config"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the most recent pass from the history store",
		Long: `Show a summary of the most recent execution pass recorded in the
history store. Requires history.path to be set in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return fmt.Errorf("history is not enabled; set history.path in %s", configPath)
			}

			store, err := openHistory(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			passes, err := store.ListPasses(ctx, 1)
			if err != nil {
				return err
			}
			if len(passes) == 0 {
				fmt.Println("No passes recorded yet")
				return nil
			}

			pass := passes[0]
			result := "FAILED"
			if pass.Success {
				result = "OK"
			}
			fmt.Printf("Last pass:  %s\n", pass.ID)
			fmt.Printf("Started:    %s\n", pass.StartedAt.Format(time.RFC3339))
			if pass.CompletedAt != nil {
				fmt.Printf("Duration:   %s\n", pass.CompletedAt.Sub(pass.StartedAt).Round(time.Millisecond))
			}
			fmt.Printf("Result:     %s (%d succeeded, %d failed of %d)\n",
				result, pass.RulesSucceeded, pass.RulesFailed, pass.RulesTotal)

			results, err := store.GetRuleResults(ctx, pass.ID)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Success {
					fmt.Printf("  ✓ %-24s %dms\n", r.Rule, r.DurationMS)
				} else {
					msg := ""
					if r.Error != nil {
						msg = *r.Error
					}
					fmt.Printf("  ✗ %-24s %dms  %s\n", r.Rule, r.DurationMS, msg)
				}
			}
			return nil
		},
	}

	return cmd
}
