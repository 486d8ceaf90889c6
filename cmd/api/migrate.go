// cmd/api/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finance-tracker/internal/config"
	"finance-tracker/internal/util"
	"finance-tracker/pkg/db"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply every pending schema migration to the configured PostgreSQL database.

Use --down to roll back the most recent migration, or --status to print the
current schema version without changing anything.`,
		RunE: runMigrate,
	}

	// Flags
	cmd.Flags().Bool("down", false, "Roll back the most recent migration")
	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	cmd.MarkFlagsMutuallyExclusive("down", "status")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	down, _ := cmd.Flags().GetBool("down")
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	util.InitLogger(util.LoggerOptions{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := util.GetLogger()

	logger.Info("Starting database migration",
		"host", cfg.DB.Host,
		"database", cfg.DB.DBName,
		"down", down,
		"status_only", status)

	switch {
	case status:
		version, dirty, err := db.SchemaVersion(cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		logger.Info("Database migration status", "version", version, "dirty", dirty)
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
		return nil
	case down:
		if err := db.MigrateDown(cfg.DB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Rolled back the most recent migration")
	default:
		if err := db.MigrateUp(cfg.DB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database migrations completed successfully")
	}
	return nil
}
