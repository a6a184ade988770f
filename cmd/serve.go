package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/signalnine/studyscope/internal/server"
	"github.com/signalnine/studyscope/internal/telemetry"
	"github.com/spf13/cobra"
)

var flagAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve study projections over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()
			if flagAddr != "" {
				cfg.Server.Addr = flagAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := telemetry.Setup(ctx, "studyscope")
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(cmd.Context()); err != nil {
					logger.Warn("telemetry shutdown", "error", err)
				}
			}()

			return server.New(store, logger).ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout)
		},
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "listen address; defaults to server.addr")
	return cmd
}
