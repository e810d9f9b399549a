// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"

	"lingotext/internal/database"
	"lingotext/internal/observability"
	contextutils "lingotext/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(dbManager *database.Manager, logger *observability.Logger, databaseURL string, db *sql.DB) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the lingotext application.

Available commands:
  migrate   - Apply pending schema migrations
  stats     - Show database statistics`,
	}

	dbCmd.AddCommand(migrateCmd(dbManager, logger, databaseURL))
	dbCmd.AddCommand(statsCmd(logger, db))

	return dbCmd
}

func migrateCmd(dbManager *database.Manager, logger *observability.Logger, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long:  `Apply all pending golang-migrate migrations from the migrations directory.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			logger.Info(ctx, "Running database migrations", nil)
			if err := dbManager.RunMigrations(databaseURL); err != nil {
				logger.Error(ctx, "Migrations failed", err, nil)
				return err
			}

			logger.Info(ctx, "Migrations completed", nil)
			return nil
		},
	}
}

func statsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Long:  `Show row counts for the main application tables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()

			counts := map[string]int{}
			for _, table := range []string{"users", "paragraphs", "exercise_attempts", "pdf_jobs"} {
				var n int
				// Table names come from the fixed list above, not user input
				if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
					logger.Error(ctx, "Failed to count table rows", err, map[string]interface{}{"table": table})
					return contextutils.WrapErrorf(err, "failed to count rows in %s", table)
				}
				counts[table] = n
			}

			for table, n := range counts {
				cmd.Printf("%-20s %d\n", table, n)
			}
			return nil
		},
	}
}
