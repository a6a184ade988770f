package cmd

import (
	"fmt"

	"github.com/signalnine/studyscope/internal/report"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored studies with completed and total trial counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := report.SummarizeAll(cmd.Context(), store)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Studies:")
			for _, s := range summaries {
				fmt.Fprintf(out, "  - %s (%s) %d/%d completed", s.Name, s.Direction, s.Completed, s.Trials)
				if s.BestValue != nil {
					fmt.Fprintf(out, ", best %g", *s.BestValue)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
