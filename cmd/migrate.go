package cmd

import (
	"fmt"

	"identity-service/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the contacts schema",
	Long:  `Creates the contacts table and its indexes if they do not exist. Requires a SQL driver.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logg, store, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()
		defer store.Close()

		db, ok := store.(*database.DB)
		if !ok {
			return fmt.Errorf("migrate requires a SQL driver, not %T", store)
		}
		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
		logg.Info("Schema is up to date", zap.String("driver", db.Driver()))
		return nil
	},
}
