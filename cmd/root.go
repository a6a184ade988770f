package cmd

import (
	"log/slog"

	"github.com/signalnine/studyscope/internal/config"
	"github.com/signalnine/studyscope/internal/logging"
	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/storage/backend"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	flagLogLevel string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "studyscope",
		Short:        "Analytics over hyperparameter optimization studies",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (empty: defaults plus STUDYSCOPE_* env)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.AddCommand(newListCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newServeCmd())
	return root
}

// setup loads config and builds the logger for a command.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewWithWriter(cmd.ErrOrStderr(), level, cfg.Log.Format), nil
}

// openStore is setup plus the configured store. Callers close the store.
func openStore(cmd *cobra.Command) (*config.Config, *slog.Logger, storage.Store, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := backend.Open(cfg.Storage)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Debug("opened store", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)
	return cfg, logger, store, nil
}
