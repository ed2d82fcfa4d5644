// Package server is the wiring layer: it maps URLs to handlers, puts the
// middleware in front of them and runs the HTTP server until a shutdown
// signal arrives.
//
// Dependency flow, assembled in cmd/server:
//
//	config → store (sqlite | postgres), cache, generator
//	       → services → handlers → routes (here)
package server

import (
	"context"
	"encoding/json"
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
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/promptforms/internal/auth"
	"github.com/sakif/promptforms/internal/handler"
	"github.com/sakif/promptforms/internal/middleware"
	"github.com/sakif/promptforms/internal/service"
)

// Config holds the HTTP-level settings.
type Config struct {
	Port        int
	CORSOrigins []string
	// WriteTimeout must outlast a schema generation call.
	WriteTimeout time.Duration
	Auth         handler.AuthOptions
}

// Deps are the services the routes delegate to. GitHub may be nil.
type Deps struct {
	Forms       *service.FormService
	Submissions *service.SubmissionService
	Auth        *service.AuthService
	Tokens      *auth.TokenService
	GitHub      *auth.GitHubProvider
}

// Server represents the HTTP server and its router.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 90 * time.Second
	}
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(deps)
	return s
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes registers middleware and routes. Middleware runs in the order
// it is added: request ID first so every later log line can carry it.
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeRouteError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
	})

	s.router.Get("/", handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(deps.Auth, deps.GitHub, s.config.Auth, s.logger)
	formHandler := handler.NewFormHandler(deps.Forms, s.logger)
	submissionHandler := handler.NewSubmissionHandler(deps.Submissions, s.logger)

	// Owner routes need a valid token whose user still exists.
	requireUser := chi.Chain(auth.RequireAuth(deps.Tokens), authHandler.RequireUser)

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(requireUser...)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/profile", authHandler.HandleMe)
		})

		if deps.GitHub != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api/form", func(r chi.Router) {
		r.Get("/{id}/public", formHandler.HandlePublic)
		r.Post("/{id}/submit", submissionHandler.HandleSubmit)

		r.Group(func(r chi.Router) {
			r.Use(requireUser...)
			r.Post("/generate", formHandler.HandleGenerate)
			r.Post("/create", formHandler.HandleCreate)
			r.Get("/allforms", formHandler.HandleList)
			r.Get("/{id}", formHandler.HandleGet)
			r.Delete("/{id}", formHandler.HandleDelete)
			r.Get("/{id}/submissions", submissionHandler.HandleList)
			r.Get("/{id}/export", submissionHandler.HandleExport)
		})
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message":   "backend API is running",
		"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func writeRouteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(handler.Envelope{Error: msg})
}

// Start serves until SIGINT or SIGTERM, then gives in-flight requests 30
// seconds to finish.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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
