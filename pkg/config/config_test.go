package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("CACHE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, "leveldb", cfg.CacheDriver)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, time.Hour, cfg.CachePruneInterval)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_EXPIRES_IN", "2d")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("CACHE_LOCAL_SIZE", "12")
	t.Setenv("ENABLE_SCHEDULER", "true")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 48*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 12, cfg.CacheLocalSize)
	assert.True(t, cfg.EnableScheduler)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_LOCAL_SIZE", "many")
	t.Setenv("JWT_EXPIRES_IN", "soon")

	cfg := Load()

	assert.Equal(t, 1024, cfg.CacheLocalSize)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
}
