package cmd

import (
	"fmt"
	"os"

	"identity-service/internal/config"
	"identity-service/internal/database"
	"identity-service/internal/logger"
	"identity-service/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "identity-service",
	Short: "Identity reconciliation service",
	Long: `Identity Service links contacts that share an email address or phone
number into clusters with a single primary contact, and serves the
consolidated view over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(serveCmd, identifyCmd, migrateCmd)
}

// bootstrap loads configuration, builds the logger and opens the store.
func bootstrap() (*config.Config, *zap.Logger, repository.Store, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := database.Open(cfg.Database, logg)
	if err != nil {
		_ = logg.Sync()
		return nil, nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
	}
	logg.Debug("Store opened", zap.String("driver", cfg.Database.Driver))

	return cfg, logg, store, nil
}
