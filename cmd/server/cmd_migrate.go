package main

import (
	"github.com/spf13/cobra"

	"github.com/storewatch/backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.Connect(&cfg.Database, log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		return database.Migrate(db, log)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the bundled branches and default incident settings",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := database.Connect(&cfg.Database, log)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db, log); err != nil {
			return err
		}
		return database.Seed(db, log)
	},
}
