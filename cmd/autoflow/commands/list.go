package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autoflow/autoflow/pkg/config"
	"github.com/autoflow/autoflow/pkg/rules/builtin"
)

func newListCommand() *cobra.Command {
	var showTypes bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured rules",
		Long: `List the rules defined in the configuration file, in definition order,
with their type and enabled state.`,
		Example: `  # List configured rules
  autoflow list

  # List the available rule types instead
  autoflow list --types`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showTypes {
				for _, t := range builtin.Defaults().Types() {
					fmt.Println(t)
				}
				return nil
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if len(cfg.Rules) == 0 {
				fmt.Println("No rules configured")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tENABLED")
			for _, def := range cfg.Rules {
				fmt.Fprintf(w, "%s\t%s\t%v\n", def.Name, def.Type, def.IsEnabled())
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&showTypes, "types", false, "list available rule types")

	return cmd
}
