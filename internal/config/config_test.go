package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "CORS_ORIGIN", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "JWT_SECRET",
	"TOKEN_TTL", "SECURE_COOKIE", "GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET",
	"GITHUB_CALLBACK_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_TTL",
	"LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable the loader reads; empty counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/promptforms.db", cfg.Database.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "http://localhost:8080/api/auth/github/callback", cfg.Auth.GitHub.CallbackURL)
	assert.False(t, cfg.Auth.GitHub.Enabled())
	assert.Empty(t, cfg.Redis.Addr, "cache is off by default")
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFile_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
server:
  port: 9000
  cors_origin: "https://forms.example.com"
database:
  driver: postgres
  url: postgres://yaml@localhost/forms
auth:
  jwt_secret: yaml-secret-0123456789
  token_ttl: 2h
redis:
  addr: redis:6379
  ttl: 30s
llm:
  model: yaml-model
logging:
  format: json
`)
	t.Setenv("PORT", "9100")
	t.Setenv("DATABASE_URL", "postgres://env@localhost/forms")
	t.Setenv("LLM_TIMEOUT", "15")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env beats yaml")
	assert.Equal(t, "postgres://env@localhost/forms", cfg.Database.URL)
	assert.Equal(t, "postgres", cfg.Database.Driver, "yaml beats defaults")
	assert.Equal(t, "yaml-secret-0123456789", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "yaml-model", cfg.LLM.Model)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout, "bare numbers are seconds")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"https://forms.example.com"}, cfg.CORSOrigins())
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET must be at least 16 characters"},
		{"bad port", map[string]string{"PORT": "eighty"}, `PORT="eighty" is not an integer`},
		{"port out of range", map[string]string{"PORT": "70000"}, "invalid port: 70000"},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, `unknown database driver "mysql"`},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL is required"},
		{"bad duration", map[string]string{"TOKEN_TTL": "forever"}, `TOKEN_TTL="forever" is not a duration`},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, `unknown log level "loud"`},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}, `unknown log format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.name != "missing secret" {
				t.Setenv("JWT_SECRET", "0123456789abcdef")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFile("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_ReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_FORMAT", "xml")

	_, err := LoadFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "log format")
}

func TestCORSOrigins(t *testing.T) {
	cfg := &Config{Server: ServerConfig{CORSOrigin: " https://a.example , ,https://b.example"}}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestNewLogger_Level(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "warn", Format: "json"}}
	logger := cfg.NewLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}
