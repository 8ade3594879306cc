package config

import (
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "STATE_BACKEND", "DATABASE_URL", "SQLITE_PATH", "JWT_SECRET", "LOG_LEVEL",
		"POSTGRES_HOST", "POSTGRES_DB", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse("test", nil)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StateBackend)
	assert.Equal(t, "electionledger.db", cfg.SQLitePath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.AuthEnabled())
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STATE_BACKEND", "sqlite")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Parse("test", []string{"-port", "9100", "-backend", "MEMORY", "-log-level", "debug", "up"})
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StateBackend)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"up"}, cfg.Args)
}

func TestParsePostgresURLFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_DB", "ledger")
	t.Setenv("POSTGRES_USER", "user")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	cfg, err := Parse("test", []string{"-backend", "postgres"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://user:secret@db:5432/ledger?sslmode=disable", cfg.DatabaseURL)
}

func TestParsePostgresURLEscapesCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_DB", "ledger")
	t.Setenv("POSTGRES_USER", "ledger@ops")
	t.Setenv("POSTGRES_PASSWORD", "p@ss:w/rd")

	cfg, err := Parse("test", []string{"-backend", "postgres"})
	require.NoError(t, err)

	u, err := url.Parse(cfg.DatabaseURL)
	require.NoError(t, err)
	assert.Equal(t, "db:6543", u.Host)
	assert.Equal(t, "/ledger", u.Path)
	assert.Equal(t, "ledger@ops", u.User.Username())
	password, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss:w/rd", password)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"bad port env", map[string]string{"PORT": "http"}, nil},
		{"port out of range", nil, []string{"-port", "70000"}},
		{"unknown backend", nil, []string{"-backend", "couchdb"}},
		{"postgres without url", nil, []string{"-backend", "postgres"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, nil},
		{"unknown flag", nil, []string{"-verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse("test", tt.args)
			assert.Error(t, err)
		})
	}
}
