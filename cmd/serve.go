package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"identity-service/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Opens the contact store, applies the schema and serves /identify until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, logg, store, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()
		defer store.Close()
		zap.ReplaceGlobals(logg)

		if err := server.New(cfg.Server, store, logg).Run(ctx); err != nil {
			return err
		}
		logg.Info("Server stopped")
		return nil
	},
}
