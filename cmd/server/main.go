// Package main is the entry point for the promptforms API server.
//
// main stays small: it reads configuration, builds the dependencies in
// order and hands them to internal/server. Everything that can be tested
// lives in the internal packages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/promptforms/internal/auth"
	"github.com/sakif/promptforms/internal/cache"
	"github.com/sakif/promptforms/internal/config"
	"github.com/sakif/promptforms/internal/generator"
	"github.com/sakif/promptforms/internal/handler"
	"github.com/sakif/promptforms/internal/repository"
	"github.com/sakif/promptforms/internal/repository/postgres"
	"github.com/sakif/promptforms/internal/repository/sqlite"
	"github.com/sakif/promptforms/internal/server"
	"github.com/sakif/promptforms/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// === 1. CONFIGURATION AND LOGGING ===
	// .env, then CONFIG_FILE, then the environment. Invalid settings stop the
	// process here, before anything is opened.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// === 2. STORAGE ===
	store, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database ready", slog.String("driver", cfg.Database.Driver))

	// === 3. FORM CACHE ===
	// Redis is optional. If it is configured but unreachable the server
	// still starts and reads forms straight from the database.
	var formCache service.FormCache
	if cfg.Redis.Addr != "" {
		c, err := cache.Open(context.Background(), cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, logger)
		if err != nil {
			logger.Warn("form cache unavailable, continuing without it", slog.String("error", err.Error()))
		} else {
			defer c.Close()
			formCache = c
		}
	}

	// === 4. SCHEMA GENERATOR ===
	var gen generator.Generator
	if cfg.LLM.APIKey != "" {
		gen, err = generator.NewOpenRouter(generator.Config{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("LLM_API_KEY not set, schema generation serves a sample form")
		gen = generator.Static{Response: []byte(generator.SampleSchema)}
	}

	// === 5. AUTHENTICATION ===
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	var github *auth.GitHubProvider
	if cfg.Auth.GitHub.Enabled() {
		github = auth.NewGitHubProvider(
			cfg.Auth.GitHub.ClientID,
			cfg.Auth.GitHub.ClientSecret,
			cfg.Auth.GitHub.CallbackURL,
		)
	} else {
		logger.Info("GitHub login disabled")
	}

	// === 6. SERVICES AND SERVER ===
	forms := service.NewFormService(store, store, gen, formCache, logger)
	origins := cfg.CORSOrigins()

	srv := server.New(server.Config{
		Port:         cfg.Server.Port,
		CORSOrigins:  origins,
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		Auth: handler.AuthOptions{
			TokenTTL:      cfg.Auth.TokenTTL,
			SecureCookie:  cfg.Auth.SecureCookie,
			AfterLoginURL: firstOrEmpty(origins),
		},
	}, server.Deps{
		Forms:       forms,
		Submissions: service.NewSubmissionService(forms, store, store, logger),
		Auth:        service.NewAuthService(store, tokens, auth.NewPasswordService(), logger),
		Tokens:      tokens,
		GitHub:      github,
	}, logger)

	// Start blocks until SIGINT or SIGTERM.
	return srv.Start()
}

func openStore(cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.New(cfg.URL)
	case "sqlite":
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
		return sqlite.New(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
