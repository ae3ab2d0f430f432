package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/munch-labs/munch/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, logger, err := loadApp()
		if err != nil {
			return err
		}
		if err := db.Migrate(cfg.PostgresURL()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
