package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "edufin-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "edufin", cfg.Database.DBName)
	assert.Equal(t, "America/Bogota", cfg.Ledger.Timezone)
	assert.Equal(t, "COP", cfg.Ledger.Currency)
	assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
	assert.Empty(t, cfg.Directory.BaseURL)
	assert.Equal(t, 10, cfg.Directory.TimeoutSeconds)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("EDUFIN_DATABASE_HOST", "db.internal")
	t.Setenv("EDUFIN_LEDGER_TIMEZONE", "America/Mexico_City")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "America/Mexico_City", cfg.Ledger.Timezone)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss:word/1",
		DBName:   "edufin",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "p%40ss%3Aword%2F1") // special chars escaped
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestConfig_Validate(t *testing.T) {
	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Database.MaxIdleConns = 50
		cfg.Database.MaxOpenConns = 10
		assert.Error(t, cfg.validate())
	})

	t.Run("invalid timezone is rejected", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Ledger.Timezone = "Mars/Olympus_Mons"
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires db password and ssl", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"
		assert.Error(t, cfg.validate())

		cfg.Database.Password = "secret"
		assert.Error(t, cfg.validate()) // sslmode still disable

		cfg.Database.SSLMode = "require"
		assert.NoError(t, cfg.validate())
	})

	t.Run("currency must be three letters", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Ledger.Currency = "PESOS"
		assert.Error(t, cfg.validate())
	})
}

func TestLedgerConfig_Location(t *testing.T) {
	l := LedgerConfig{Timezone: "America/Bogota"}
	loc, err := l.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", loc.String())
}
