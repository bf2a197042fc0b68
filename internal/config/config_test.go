package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "STORE", "ACCESS_TTL_MINUTES", "REDIS_ADDR", "RATE_LIMIT_PER_MIN", "LOG_PROD", "GOOGLE_CLIENT_ID"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 5, cfg.RateLimitPerMin)
	assert.False(t, cfg.LogProd)
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STORE", "Memory")
	t.Setenv("ACCESS_TTL_MINUTES", "60")
	t.Setenv("RATE_LIMIT_PER_MIN", "oops")
	t.Setenv("LOG_PROD", "true")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, 5, cfg.RateLimitPerMin, "unparsable values fall back to the default")
	assert.True(t, cfg.LogProd)
	assert.True(t, cfg.GoogleEnabled())
}
