// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/habitloop/habitloop/internal/auth"
	authpg "github.com/habitloop/habitloop/internal/auth/postgres"
	"github.com/habitloop/habitloop/internal/config"
	"github.com/habitloop/habitloop/internal/habit"
	habitpg "github.com/habitloop/habitloop/internal/habit/postgres"
	"github.com/habitloop/habitloop/internal/httpapi"
	"github.com/habitloop/habitloop/internal/logging"
	"github.com/habitloop/habitloop/internal/observability"
	"github.com/habitloop/habitloop/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. Pending database migrations are
applied before the server begins accepting requests.`,
		RunE: runServe,
	}

	registerConfigFlags(cmd.Flags())

	return cmd
}

// registerConfigFlags declares the flags the config loader reads. Flag
// names match the config keys so precedence resolution stays mechanical.
func registerConfigFlags(flags *pflag.FlagSet) {
	flags.String("http_addr", "", "API listen address")
	flags.String("metrics_addr", "", "metrics/health listen address (empty = disabled)")
	flags.String("database_url", "", "PostgreSQL connection URL")
	flags.String("jwt_secret", "", "token signing secret")
	flags.Duration("token_ttl", 0, "issued token lifetime")
	flags.String("log_format", "", "log format (json or text)")
	flags.String("log_level", "", "log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("habitloop", version, cfg.LogFormat, cfg.LogLevel)

	if cfg.UsingInsecureSecret() {
		slog.Warn("jwt_secret is the built-in development default; " +
			"set HABITLOOP_JWT_SECRET before exposing this server")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pool, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	slog.Info("connected to database")

	if err := applyMigrations(cfg.DatabaseURL); err != nil {
		return err
	}

	issuer, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(authpg.NewUserRepository(pool), auth.NewArgon2idHasher(), issuer)
	if err != nil {
		return err
	}
	habitSvc, err := habit.NewService(habitpg.NewHabitRepository(pool), habitpg.NewCompletionRepository(pool))
	if err != nil {
		return err
	}

	api := httpapi.API{Auth: authSvc, Habits: habitSvc}

	// Observability server is optional; without it the API runs with no
	// per-request metrics.
	var metrics *observability.Metrics
	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			return pool.Ping(ctx) == nil
		})
		metrics = obsServer.Metrics()

		obsErrCh, obsErr := obsServer.Start()
		if obsErr != nil {
			return obsErr
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	apiServer := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(api, metrics))
	apiErrCh, err := apiServer.Start()
	if err != nil {
		if obsServer != nil {
			stopWithTimeout(obsServer.Stop, "observability")
		}
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("HabitLoop server started")
	slog.Info("server ready", "http_addr", apiServer.Addr(), "metrics_addr", cfg.MetricsAddr)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")
	stopWithTimeout(apiServer.Stop, "api")
	if obsServer != nil {
		stopWithTimeout(obsServer.Stop, "observability")
	}
	slog.Info("shutdown complete")

	return nil
}

// applyMigrations runs all pending migrations and closes the migrator.
func applyMigrations(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

func stopWithTimeout(stop func(context.Context) error, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
}

// monitorServerErrors cancels the run context when a server reports an
// error. A closed channel means the server stopped gracefully.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
