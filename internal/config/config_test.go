package config_test

import (
	"testing"
	"time"

	"regimath/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3001", cfg.Server.SiteURL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "regimath_session", cfg.Session.CookieName)
	assert.Equal(t, 72*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Payments.Sandbox)
	assert.Empty(t, cfg.Redis.Address)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("SITE_URL", "https://regimath.example/")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=db user=app")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("MP_SANDBOX", "false")
	t.Setenv("TELEGRAM_OPS_CHAT_ID", "-100123")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://regimath.example", cfg.Server.SiteURL, "trailing slash is trimmed")
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=app", cfg.Database.DSN)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.False(t, cfg.Payments.Sandbox)
	assert.Equal(t, int64(-100123), cfg.Telegram.OpsChatID)
}
