// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package main

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/habitloop/habitloop/internal/auth"
	authpg "github.com/habitloop/habitloop/internal/auth/postgres"
	"github.com/habitloop/habitloop/internal/config"
	"github.com/habitloop/habitloop/internal/habit"
	habitpg "github.com/habitloop/habitloop/internal/habit/postgres"
	"github.com/habitloop/habitloop/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// Demo account credentials. Development only; the password is public.
const (
	demoUsername = "demo"
	demoEmail    = "demo@habitloop.local"
	demoPassword = "demo-password-1"
)

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo account with sample habits",
		Long: `Creates a demo user with a few sample habits for local development.
This command is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, seedCfg *seedConfig) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	// Use cmd.Context() so SIGINT/SIGTERM still interrupt the seed.
	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	if err := applyMigrations(cfg.DatabaseURL); err != nil {
		return err
	}

	issuer, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}
	users := authpg.NewUserRepository(pool)
	authSvc, err := auth.NewService(users, auth.NewArgon2idHasher(), issuer)
	if err != nil {
		return err
	}
	habitSvc, err := habit.NewService(habitpg.NewHabitRepository(pool), habitpg.NewCompletionRepository(pool))
	if err != nil {
		return err
	}

	identity, err := authSvc.Register(ctx, demoUsername, demoEmail, demoPassword)
	if err != nil {
		if !errors.Is(err, auth.ErrDuplicateIdentity) {
			return oops.Code("SEED_FAILED").With("operation", "create demo user").Wrap(err)
		}
		cmd.Println("Demo user already exists, skipping seed")
		return nil
	}

	for _, in := range demoHabits() {
		if _, createErr := habitSvc.CreateHabit(ctx, identity.ID, in); createErr != nil {
			return oops.Code("SEED_FAILED").With("operation", "create demo habit").Wrap(createErr)
		}
	}

	cmd.Printf("Seeded demo user %s (%s)\n", demoUsername, demoEmail)
	return nil
}

func demoHabits() []habit.HabitInput {
	name := func(s string) *string { return &s }
	cat := func(c habit.Category) *habit.Category { return &c }
	kind := func(k habit.Kind) *habit.Kind { return &k }
	target := func(v float64) *float64 { return &v }
	unit := func(u habit.Unit) *habit.Unit { return &u }

	return []habit.HabitInput{
		{
			Name:        name("Morning run"),
			Category:    cat(habit.CategoryFitness),
			Kind:        kind(habit.KindWorkout),
			TargetValue: target(2),
			Unit:        unit(habit.UnitMiles),
		},
		{
			Name:        name("Push-ups"),
			Category:    cat(habit.CategoryFitness),
			Kind:        kind(habit.KindWorkout),
			TargetValue: target(30),
			Unit:        unit(habit.UnitReps),
		},
		{
			Name:        name("Meditate"),
			Category:    cat(habit.CategoryHealth),
			TargetValue: target(10),
			Unit:        unit(habit.UnitMinutes),
		},
	}
}
