// Package server is the composition root: it turns a config.Config and a
// storage backend into a routed HTTP server and runs it until a signal.
//
// DEPENDENCY FLOW:
//
//	config → store (sqlite | postgres) → services → handlers → chi routes
//
// Each layer only receives what it needs. Services get repository
// interfaces, handlers get services, and nothing below this package knows
// which database or which mail transport is in use.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/grindboard/internal/auth"
	"github.com/sakif/grindboard/internal/config"
	"github.com/sakif/grindboard/internal/handler"
	"github.com/sakif/grindboard/internal/middleware"
	"github.com/sakif/grindboard/internal/repository"
	"github.com/sakif/grindboard/internal/service"
)

// Server owns the router and the store. The store is closed when Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	store  repository.Store
	logger *slog.Logger
}

// New wires every route. dispatcher runs the cron-triggered cycle; the
// caller builds it so tests can swap channels.
func New(cfg config.Config, store repository.Store, dispatcher handler.Runner, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		store:  store,
		logger: logger,
	}
	if err := s.setupRoutes(dispatcher); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
//	GET   /healthz                 liveness
//	GET   /api/roast/today         today's dashboard line (public)
//	GET   /api/cron/dispatch       run one dispatch cycle  (Bearer CRON_SECRET)
//	POST  /api/admin/login         password → JWT          (only with JWT_SECRET)
//	GET   /api/admin/settings      toggles, counters, content  (admin JWT)
//	PATCH /api/admin/settings      flip toggles                (admin JWT)
//	PUT   /api/admin/content       store the day's bundle      (admin JWT)
//	PUT   /api/admin/users         upsert a directory entry    (admin JWT)
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print it; Recoverer sits inside
// the logger so a panic is logged as the 500 it became.
func (s *Server) setupRoutes(dispatcher handler.Runner) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	var tokens *auth.TokenService
	if s.config.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret, auth.DefaultTokenTTL)
		if err != nil {
			return err
		}
	} else {
		s.logger.Warn("JWT_SECRET not set, admin API disabled")
	}

	adminService := service.NewAdminService(s.store, s.store, service.AdminConfig{
		Tokens:       tokens,
		PasswordHash: s.config.AdminPasswordHash,
		Location:     s.config.Location(),
	}, s.logger)
	adminHandler := handler.NewAdminHandler(adminService, s.logger)
	dispatchHandler := handler.NewDispatchHandler(dispatcher, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/roast/today", adminHandler.HandleTodayRoast)

		r.With(auth.RequireSecret(s.config.CronSecret)).
			Get("/cron/dispatch", dispatchHandler.HandleDispatch)

		if tokens == nil {
			return
		}
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", adminHandler.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(tokens))
				r.Get("/settings", adminHandler.HandleGetSettings)
				r.Patch("/settings", adminHandler.HandlePatchSettings)
				r.Put("/content", adminHandler.HandlePutContent)
				r.Put("/users", adminHandler.HandlePutUser)
			})
		})
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the store.
//
// WriteTimeout has to outlast a full dispatch run: the cron request stays
// open while every batch sends.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("timezone", s.config.Timezone),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
