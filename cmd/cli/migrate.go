package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teenyweeny/urlshortener/cmd"
	"github.com/teenyweeny/urlshortener/internal/repository"
)

// MigrateCmd represents the 'migrate' command
// This command handles database schema creation and updates
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured SQL database (SQLite or PostgreSQL)
and executes GORM automatic migrations to create the 'links' table
based on the Go models. Other store drivers need no migration.`,
	Run: func(c *cobra.Command, args []string) {
		// Connect to the database selected by store.driver
		db, err := repository.OpenDB(cmd.Cfg)
		if err != nil {
			cmd.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}

		// Get the underlying SQL database connection for proper resource management
		sqlDB, err := db.DB()
		if err != nil {
			cmd.Log.Fatal().Err(err).Msg("Failed to get underlying SQL database")
		}
		defer sqlDB.Close()

		if err := repository.Migrate(db); err != nil {
			cmd.Log.Fatal().Err(err).Msg("Failed to migrate database")
		}

		fmt.Printf("Database migrations executed successfully (%s).\n", cmd.Cfg.Store.Driver)
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
