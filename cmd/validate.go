package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <study>",
		Short: "Check the invariants of a stored study",
		Long:  "Snapshot a study and check trial ordering, state/value consistency and that every param lies in its distribution.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			study, err := store.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading study %s: %w", args[0], err)
			}
			if err := study.Validate(); err != nil {
				logger.Error("study failed validation", "study", study.Name, "error", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d trials)\n", study.Name, len(study.Trials))
			return nil
		},
	}
}
