package cmd

import (
	"fmt"

	"github.com/signalnine/studyscope/internal/analytics"
	"github.com/signalnine/studyscope/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagFormat      string
	flagParams      []string
	flagProjections []string
	flagAll         bool
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [study]",
		Short: "Render study projections",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagAll == (len(args) == 1) {
				return fmt.Errorf("specify exactly one of a study name or --all")
			}
			cfg, logger, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			projections, err := report.ParseProjections(flagProjections)
			if err != nil {
				return err
			}
			opts := report.Options{
				Format:      cfg.Report.Format,
				Params:      flagParams,
				Projections: projections,
			}
			if flagFormat != "" {
				opts.Format = flagFormat
			}

			if flagAll {
				return report.GenerateAll(cmd.Context(), store, opts, cfg.Report.Parallel, cmd.OutOrStdout())
			}
			study, err := store.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading study %s: %w", args[0], err)
			}
			if unknown := analytics.UnknownParams(study, flagParams); len(unknown) > 0 {
				logger.Warn("params not defined by any completed trial", "study", study.Name, "params", unknown)
			}
			return report.Generate(study, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "", "output format (table, markdown, json); defaults to report.format")
	cmd.Flags().StringSliceVar(&flagParams, "params", nil, "parameters to project, in order (default: all)")
	cmd.Flags().StringSliceVar(&flagProjections, "projection", nil, "projections to render: history, intermediate, contour, parallel-coordinate, slice (default: all)")
	cmd.Flags().BoolVar(&flagAll, "all", false, "report every stored study")
	return cmd
}
