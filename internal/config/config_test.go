package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("XP_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.ViewDedupWindow)
	assert.Equal(t, time.Minute, cfg.ViewSyncInterval)
	assert.Equal(t, XPRates{LikeXP: 5, DeckCreateXP: 10, DeckCreateDailyCap: 50, LogXP: 5}, cfg.XP)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("XP_CONFIG_PATH", "")
	t.Setenv("LIKE_XP", "3")
	t.Setenv("DECK_CREATE_DAILY_CAP", "0")
	t.Setenv("RATE_LIMIT_LIKE", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.XP.LikeXP)
	assert.Equal(t, 0, cfg.XP.DeckCreateDailyCap)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimitLike)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad int", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("LOG_XP", "five")
		_, err := Load()
		assert.ErrorContains(t, err, "LOG_XP")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("VIEW_DEDUP_WINDOW", "forever")
		_, err := Load()
		assert.ErrorContains(t, err, "VIEW_DEDUP_WINDOW")
	})

	t.Run("production requires jwt secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}

func TestLoad_XPTableOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("like_xp: 7\ndeck_create_daily_cap: 30\n"), 0o600))

	t.Setenv("APP_ENV", "development")
	t.Setenv("LIKE_XP", "2")
	t.Setenv("LOG_XP", "9")
	t.Setenv("XP_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.XP.LikeXP, "table wins over env")
	assert.Equal(t, 30, cfg.XP.DeckCreateDailyCap)
	assert.Equal(t, 10, cfg.XP.DeckCreateXP, "keys absent from the table keep env/default")
	assert.Equal(t, 9, cfg.XP.LogXP)
}

func TestLoad_XPTableMissingFile(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("XP_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "XP table")
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPass: "p", DBName: "n", DBPort: "5433"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=disable", cfg.PostgresDSN())
}
