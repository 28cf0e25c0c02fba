package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *App) newModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List foundation models available in the region",
		Long: `List the foundation models Bedrock offers in the configured region.

Examples:
  bedrockchat models
  bedrockchat models --by-provider ""   # every provider
  bedrockchat models --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.backend(ctx)
			if err != nil {
				return err
			}

			models, err := b.Provider.ListFoundationModels(ctx, a.modelsProvider)
			if err != nil {
				return err
			}

			if a.jsonOutput {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(models)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL ID\tNAME\tPROVIDER\tSTREAMING\tINPUT")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
					m.ModelID, m.ModelName, m.ProviderName, m.ResponseStreamingSupported,
					strings.Join(m.InputModalities, ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&a.modelsProvider, "by-provider", a.modelsProvider, "Filter by model provider (empty lists all)")
	return cmd
}
