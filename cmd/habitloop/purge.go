// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package main

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/habitloop/habitloop/internal/config"
	"github.com/habitloop/habitloop/internal/habit"
	habitpg "github.com/habitloop/habitloop/internal/habit/postgres"
	"github.com/habitloop/habitloop/internal/store"
)

const defaultPurgeTimeout = 30 * time.Second

// NewPurgeHabitCmd creates the purge-habit subcommand. Purge is an
// operator tool; the HTTP API only ever archives.
func NewPurgeHabitCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "purge-habit <habit-id>",
		Short: "Permanently delete a habit and its completion history",
		Long: `Permanently deletes a habit and every completion recorded for it.
Unlike archiving, purged data is gone: the ledger rows are removed and
the user's stats shrink accordingly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurgeHabit(cmd, args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultPurgeTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runPurgeHabit(cmd *cobra.Command, rawID string, timeout time.Duration) error {
	habitID, err := ulid.Parse(rawID)
	if err != nil {
		return oops.Code("PURGE_FAILED").With("id", rawID).Errorf("invalid habit ID: %v", err)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	habitSvc, err := habit.NewService(habitpg.NewHabitRepository(pool), habitpg.NewCompletionRepository(pool))
	if err != nil {
		return err
	}

	if err := habitSvc.PurgeHabit(ctx, habitID); err != nil {
		return err
	}

	cmd.Printf("Purged habit %s and its completion history\n", habitID)
	return nil
}
