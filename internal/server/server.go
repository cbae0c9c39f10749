// Package server is the composition root: it owns the database handle, wires
// repositories into services and services into handlers, and lays out the
// route table. Nothing else in the codebase knows how the layers connect.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mypeople/backend/internal/auth"
	"github.com/mypeople/backend/internal/handler"
	"github.com/mypeople/backend/internal/middleware"
	sqliteRepo "github.com/mypeople/backend/internal/repository/sqlite"
	"github.com/mypeople/backend/internal/service"
)

// Config holds everything the server needs from the environment. There are
// no package-level defaults hiding behind it — main builds the whole struct
// explicitly.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown, after in-flight requests drain.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, assembles the dependency chain, and registers all
// routes. The chain is strictly layered: handlers see services, services see
// repository interfaces, and only this package touches the concrete DB.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires the middleware stack and the /api/v1 route table.
//
// Middleware order: RequestID first so every later line can correlate,
// RealIP before logging so the logged peer is the real client, then the
// request logger, then Recoverer so a panic still produces a logged 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	userService := service.NewUserService(s.db.Users(), s.logger)
	followService := service.NewFollowService(s.db.Users(), s.db.Relationships(), s.logger)
	groupService := service.NewGroupService(s.db.Groups(), s.db.Relationships(), s.logger)
	eventService := service.NewEventService(s.db.Events(), s.db.Groups(), s.db.Relationships(), s.logger)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, followService)
	groupHandler := handler.NewGroupHandler(groupService)
	eventHandler := handler.NewEventHandler(eventService)

	s.router.Route("/api/v1", func(r chi.Router) {
		// The only routes reachable without a bearer token.
		r.Post("/auth/sign-up", authHandler.SignUp)
		r.Post("/auth/access-token", authHandler.AccessToken)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(authService))

			r.Get("/user", userHandler.Me)
			r.Patch("/user", userHandler.UpdateProfile)
			r.Post("/user/update-profile-image", userHandler.UpdateProfileImage)
			r.Get("/user/followers", userHandler.Followers)
			r.Get("/user/following", userHandler.Following)

			r.Post("/users/{userID}/follow", userHandler.Follow)
			r.Delete("/users/{userID}/follow", userHandler.Unfollow)

			r.Post("/groups", groupHandler.Create)
			r.Get("/groups", groupHandler.List)
			r.Get("/groups/{groupID}", groupHandler.Get)
			r.Patch("/groups/{groupID}", groupHandler.Update)
			r.Patch("/groups/{groupID}/update-cover-image", groupHandler.UpdateCoverImage)
			r.Patch("/groups/{groupID}/add-group-members", groupHandler.AddMembers)
			r.Delete("/groups/{groupID}", groupHandler.Delete)

			r.Post("/events", eventHandler.Create)
			r.Get("/events", eventHandler.List)
			r.Get("/events/{eventID}", eventHandler.Get)
			r.Patch("/events/{eventID}", eventHandler.Update)
		})
	})

	return nil
}

// Router exposes the assembled handler, mainly for tests that drive the full
// stack through httptest without opening a listener.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database connection. Start does this itself; Close
// exists for callers that build a Server without running it.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the database. Closing the DB last flushes the WAL and
// releases the file lock.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
