package main

// Run database migrations:
//   go run ./cmd/migrate up
//   go run ./cmd/migrate down
//   go run ./cmd/migrate status

import (
	"context"
	"database/sql"
	"os"

	"github.com/spf13/cobra"

	"docsummary-backend/internal/shared/config"
	"docsummary-backend/internal/shared/storage/db"
	"docsummary-backend/internal/shared/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the document summary database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		migrationCmd("up", "Apply all pending migrations", db.RunMigrations),
		migrationCmd("down", "Revert the most recent migration", db.RollbackMigration),
		migrationCmd("status", "Print the state of every migration", db.MigrationStatus),
	)
	return root
}

func migrationCmd(use, short string, fn func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			return fn(ctx, sqlDB)
		},
	}
}
