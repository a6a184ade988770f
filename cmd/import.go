package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/trial"
	"github.com/spf13/cobra"
)

var (
	flagImportName string
	flagAppend     bool
	flagSkip       int
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a YAML or JSON study file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			study, err := trial.LoadStudy(args[0])
			if err != nil {
				return err
			}
			if flagImportName != "" {
				study.Name = flagImportName
			}
			if study.Name == "" {
				return fmt.Errorf("%s: study has no name; pass --name", args[0])
			}
			if err := study.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if flagSkip < 0 || flagSkip > len(study.Trials) {
				return fmt.Errorf("--skip %d: file has %d trials", flagSkip, len(study.Trials))
			}

			_, logger, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			err = store.CreateStudy(ctx, study.Name, study.Direction)
			switch {
			case errors.Is(err, storage.ErrStudyExists) && flagAppend:
				existing, err := store.Snapshot(ctx, study.Name)
				if err != nil {
					return err
				}
				if existing.Direction != study.Direction {
					return fmt.Errorf("study %s is %s, file says %s", study.Name, existing.Direction, study.Direction)
				}
			case err != nil:
				return fmt.Errorf("creating study %s: %w", study.Name, err)
			}

			trials := study.Trials[flagSkip:]
			written, err := importTrials(ctx, store, study.Name, trials)
			if err != nil {
				logger.Error("import stopped", "study", study.Name, "written", written, "error", err)
				resume := fmt.Sprintf("import --append --skip %d", flagSkip+written)
				if flagImportName != "" {
					resume += " --name " + flagImportName
				}
				return fmt.Errorf("import into %s stopped after %d of %d trials: %w; resume with: %s %s",
					study.Name, written, len(trials), err, resume, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d trials into %s\n", written, study.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagImportName, "name", "", "store under this study name instead of the file's")
	cmd.Flags().BoolVar(&flagAppend, "append", false, "append to an existing study with the same direction")
	cmd.Flags().IntVar(&flagSkip, "skip", 0, "skip the first N trials of the file")
	return cmd
}

// importTrials appends trials in file order and returns how many were stored.
// Stores that support it take the whole batch in one transaction.
func importTrials(ctx context.Context, store storage.Store, study string, trials []trial.Trial) (int, error) {
	if batch, ok := store.(storage.BatchAppender); ok {
		if _, err := batch.AppendTrials(ctx, study, trials); err != nil {
			return 0, err
		}
		return len(trials), nil
	}
	for i, t := range trials {
		if _, err := store.AppendTrial(ctx, study, t); err != nil {
			return i, fmt.Errorf("appending trial %d: %w", t.Number, err)
		}
	}
	return len(trials), nil
}
