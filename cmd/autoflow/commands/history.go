package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/autoflow/autoflow/pkg/config"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [pass-id]",
		Short: "Show recorded execution passes",
		Long: `List recent execution passes from the history store, newest first.
With a pass ID argument, show that pass and its per-rule results.

Requires history.path to be set in the config file.`,
		Example: `  # List the 20 most recent passes
  autoflow history

  # List more
  autoflow history --limit 100

  # Inspect one pass
  autoflow history 2f1a9c3e-...`,
		Args: cobra.MaximumNArgs(1),
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

			if len(args) == 1 {
				pass, err := store.GetPass(ctx, args[0])
				if err != nil {
					return err
				}
				results, err := store.GetRuleResults(ctx, pass.ID)
				if err != nil {
					return err
				}

				fmt.Printf("Pass %s\n", pass.ID)
				fmt.Printf("Started: %s, success: %v\n\n", pass.StartedAt.Format(time.RFC3339), pass.Success)
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "RULE\tRESULT\tDURATION\tERROR")
				for _, r := range results {
					result := "ok"
					msg := ""
					if !r.Success {
						result = "failed"
						if r.Error != nil {
							msg = *r.Error
						}
					}
					fmt.Fprintf(w, "%s\t%s\t%dms\t%s\n", r.Rule, result, r.DurationMS, msg)
				}
				return w.Flush()
			}

			passes, err := store.ListPasses(ctx, limit)
			if err != nil {
				return err
			}
			if len(passes) == 0 {
				fmt.Println("No passes recorded yet")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tRESULT\tRULES")
			for _, pass := range passes {
				result := "failed"
				if pass.Success {
					result = "ok"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\n",
					pass.ID,
					pass.StartedAt.Format(time.RFC3339),
					result,
					pass.RulesSucceeded,
					pass.RulesTotal,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of passes to list")

	return cmd
}
