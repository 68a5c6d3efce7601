package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/asesoria")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "@ceti.mx", cfg.AllowedEmailDomain)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 24*time.Hour, cfg.PurgeInterval)
	assert.Equal(t, 30*time.Second, cfg.FeedRefreshInterval)
	assert.Equal(t, 500, cfg.PurgeBatchSize)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_EMAIL_DOMAIN", "@example.edu")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("FEED_REFRESH_INTERVAL", "5s")
	t.Setenv("PURGE_BATCH_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "@example.edu", cfg.AllowedEmailDomain)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 5*time.Second, cfg.FeedRefreshInterval)
	assert.Equal(t, 100, cfg.PurgeBatchSize)
}

func TestLoadRequiredMissing(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "test-secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost:5432/asesoria")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsBadValues(t *testing.T) {
	setRequired(t)

	t.Setenv("JWT_TTL", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_TTL")

	t.Setenv("JWT_TTL", "1h")
	t.Setenv("PURGE_BATCH_SIZE", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "PURGE_BATCH_SIZE")
}
