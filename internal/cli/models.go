package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/soyeahso/llmbridge/internal/provider"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models [provider]",
		Short: "List models in fallback order, with prices per million tokens",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := cfg.BuildCatalog()
			if err != nil {
				return err
			}

			names := provider.Names()
			if len(args) == 1 {
				name := strings.ToLower(args[0])
				if _, err := provider.Adapter(name); err != nil {
					return err
				}
				names = []string{name}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range names {
				current := cfg.ModelFor(name)
				fmt.Fprintf(w, "%s\n", name)
				for _, g := range cat.Groups(name) {
					fmt.Fprintf(w, "  [%s]\t\t\t\n", g.Key)
					for _, id := range g.Models {
						mark := " "
						if id == current {
							mark = "*"
						}
						price := "-"
						if p, ok := cat.Pricing(id); ok {
							price = fmt.Sprintf("$%.2f / $%.2f", p.Input*1e6, p.Output*1e6)
						}
						m, _ := cat.Model(id)
						fmt.Fprintf(w, "  %s %s\t%s\t%s\n", mark, id, price, m.DisplayName)
					}
				}
			}
			return w.Flush()
		},
	}
}
