package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  address: \":9000\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "config/cards.json", cfg.Game.CardCatalogPath)
	assert.Equal(t, 2*time.Hour, cfg.Game.GuestSessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Game.GuestSweepInterval)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  password: secret
logging:
  level: debug
  format: console
game:
  guest_session_ttl: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 30*time.Minute, cfg.Game.GuestSessionTTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "carboncity",
		Password: "pw", Database: "carboncity", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=carboncity password=pw dbname=carboncity sslmode=disable",
		cfg.DSN())
}
