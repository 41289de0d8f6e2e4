package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cost <model> <input-tokens> <output-tokens>",
		Short: "Price a request for a model",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := cfg.BuildCatalog()
			if err != nil {
				return err
			}
			in, err := strconv.Atoi(args[1])
			if err != nil || in < 0 {
				return fmt.Errorf("invalid input token count %q", args[1])
			}
			out, err := strconv.Atoi(args[2])
			if err != nil || out < 0 {
				return fmt.Errorf("invalid output token count %q", args[2])
			}
			if _, ok := cat.Model(args[0]); !ok {
				return fmt.Errorf("unknown model %q", args[0])
			}
			if _, ok := cat.Pricing(args[0]); !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "no pricing for %s, cost is zero\n", args[0])
			}

			c := cat.Cost(args[0], in, out)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "input:  $%s\n", c.InputCost)
			fmt.Fprintf(w, "output: $%s\n", c.OutputCost)
			fmt.Fprintf(w, "total:  $%s\n", c.TotalCost)
			return nil
		},
	}
}
