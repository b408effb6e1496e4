// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/habitloop/habitloop/internal/config"
	"github.com/habitloop/habitloop/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, and inspect schema migrations for the PostgreSQL database.`,
		RunE:  runMigrateUp,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE:  runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE:  runMigrateStatus,
	})

	var steps int
	stepsCmd := &cobra.Command{
		Use:   "steps",
		Short: "Apply n migrations up (positive) or down (negative)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				if err := m.Steps(steps); err != nil {
					return oops.Code("MIGRATION_FAILED").With("steps", steps).Wrap(err)
				}
				cmd.Printf("Applied %d migration step(s)\n", steps)
				return nil
			})
		},
	}
	stepsCmd.Flags().IntVar(&steps, "n", 1, "number of steps (negative rolls back)")
	cmd.AddCommand(stepsCmd)

	var forceVersion int
	forceCmd := &cobra.Command{
		Use:   "force",
		Short: "Force the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag. Use only
to recover from a failed migration after fixing the schema by hand.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				if err := m.Force(forceVersion); err != nil {
					return oops.Code("MIGRATION_FAILED").With("version", forceVersion).Wrap(err)
				}
				cmd.Printf("Forced schema version to %d\n", forceVersion)
				return nil
			})
		},
	}
	forceCmd.Flags().IntVar(&forceVersion, "version", 0, "schema version to record")
	_ = forceCmd.MarkFlagRequired("version") //nolint:errcheck // flag exists

	cmd.AddCommand(forceCmd)

	return cmd
}

// withMigrator loads config, opens a migrator, runs fn, and closes it.
func withMigrator(fn func(*store.Migrator) error) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	return fn(migrator)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withMigrator(func(m *store.Migrator) error {
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
		cmd.Println("Migrations completed successfully")
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	return withMigrator(func(m *store.Migrator) error {
		cmd.Println("Rolling back all migrations...")
		if err := m.Down(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
		}
		cmd.Println("Rollback completed successfully")
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	return withMigrator(func(m *store.Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return oops.Code("MIGRATION_STATUS_FAILED").Wrap(err)
		}
		cmd.Printf("Current version: %d (dirty: %v)\n", version, dirty)

		applied, err := m.AppliedMigrations()
		if err != nil {
			return oops.Code("MIGRATION_STATUS_FAILED").Wrap(err)
		}
		pending, err := m.PendingMigrations()
		if err != nil {
			return oops.Code("MIGRATION_STATUS_FAILED").Wrap(err)
		}

		printMigrationList(cmd, "Applied", applied)
		printMigrationList(cmd, "Pending", pending)
		return nil
	})
}

func printMigrationList(cmd *cobra.Command, label string, versions []uint) {
	if len(versions) == 0 {
		cmd.Printf("%s: none\n", label)
		return
	}
	cmd.Printf("%s:\n", label)
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil || name == "" {
			name = "(unknown)"
		}
		cmd.Printf("  %d %s\n", v, name)
	}
}
