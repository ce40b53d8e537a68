package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("MAX_BIDDERS_PER_TENDER", "10")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StoreDriverPebble, cfg.StoreDriver)
	assert.Equal(t, 10, cfg.MaxBidders)
	assert.Equal(t, 64, cfg.SelectPageSize)
	assert.Equal(t, "hash", cfg.CommitmentScheme)
	assert.Equal(t, AuthModeJWT, cfg.AuthMode)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		"SERVER_ADDRESS=127.0.0.1:9000",
		"AUTH_MODE=none",
		"STORE_DRIVER=postgres",
		"POSTGRES_CONN=postgres://u:p@localhost:5432/tenders?sslmode=disable",
		"ADMIN_ID=root",
		"REQUEST_TIMEOUT=2s",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddress)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "root", cfg.AdminID)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestValidate(t *testing.T) {
	base := Config{
		StoreDriver:    StoreDriverPebble,
		PebblePath:     "data",
		AuthMode:       AuthModeNone,
		RequestTimeout: time.Second,
		MaxBidders:     1,
		SelectPageSize: 1,
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }},
		{"postgres without conn", func(c *Config) { c.StoreDriver = StoreDriverPostgres }},
		{"postgres without database", func(c *Config) {
			c.StoreDriver = StoreDriverPostgres
			c.PostgresHost, c.PostgresPort, c.PostgresUser = "db", "5432", "u"
		}},
		{"short jwt secret", func(c *Config) { c.AuthMode = AuthModeJWT; c.JWTSecret = "x" }},
		{"unknown auth", func(c *Config) { c.AuthMode = "basic" }},
		{"zero bidders", func(c *Config) { c.MaxBidders = 0 }},
		{"zero page", func(c *Config) { c.SelectPageSize = 0 }},
		{"rate without burst", func(c *Config) { c.RateLimitRPS = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	c := Config{
		PostgresUser: "tender",
		PostgresPass: "p@ss",
		PostgresHost: "db",
		PostgresPort: "5432",
		PostgresDB:   "tenders",
	}
	assert.Equal(t, "postgres://tender:p%40ss@db:5432/tenders?sslmode=disable", c.PostgresDSN())

	c.PostgresConn = "postgres://other@localhost/x"
	assert.Equal(t, "postgres://other@localhost/x", c.PostgresDSN())

	assert.Empty(t, Config{PostgresHost: "db"}.PostgresDSN())
}

func TestLoadConfigPostgresParts(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5432")
	t.Setenv("POSTGRES_USERNAME", "tender")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DATABASE", "tenders")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://tender:secret@db:5432/tenders?sslmode=disable", cfg.PostgresDSN())
}
