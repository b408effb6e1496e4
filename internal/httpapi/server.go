// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HabitLoop Contributors

// Package httpapi exposes the REST surface of the service.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/habitloop/habitloop/internal/auth"
	"github.com/habitloop/habitloop/internal/habit"
	"github.com/habitloop/habitloop/internal/observability"
)

// API bundles the services the handlers dispatch to.
type API struct {
	Auth   *auth.Service
	Habits *habit.Service
}

// NewRouter builds the gin engine with all routes registered. metrics may
// be nil, in which case no per-request metrics are recorded.
func NewRouter(api API, metrics *observability.Metrics) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	if metrics != nil {
		engine.Use(recordMetrics(metrics))
	}

	engine.GET("/api/health", handleHealth)

	authGroup := engine.Group("/api/auth")
	{
		authGroup.POST("/register", handleRegister(api))
		authGroup.POST("/login", handleLogin(api, metrics))
	}

	protected := engine.Group("/api")
	protected.Use(RequireAuth(api.Auth))
	{
		protected.GET("/habits", handleListHabits(api))
		protected.POST("/habits", handleCreateHabit(api))
		protected.GET("/habits/:id", handleGetHabit(api))
		protected.PUT("/habits/:id", handleUpdateHabit(api))
		protected.DELETE("/habits/:id", handleArchiveHabit(api))

		protected.GET("/completions", handleListCompletions(api))
		protected.POST("/completions", handleMarkComplete(api, metrics))
		protected.DELETE("/completions", handleUnmarkComplete(api, metrics))
		protected.GET("/completions/today", handleCompletionsToday(api))
		protected.GET("/completions/habit/:habitId", handleCompletionsForHabit(api))

		protected.GET("/stats", handleStats(api))
	}

	return engine
}

func handleHealth(c *gin.Context) {
	respondData(c, http.StatusOK, gin.H{"status": "ok"})
}

// Server runs the REST API with the same start/stop contract as the
// observability server.
type Server struct {
	addr       string
	engine     *gin.Engine
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates an API server listening on addr.
func NewServer(addr string, engine *gin.Engine) *Server {
	return &Server{addr: addr, engine: engine}
}

// Start begins serving. The returned channel receives serve errors and is
// closed on graceful shutdown.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	slog.Info("api server stopped")
	return nil
}

// Addr returns the listen address, or "" when not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
