package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("TOKEN_SIGN_SECRET", "s3cret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "5005", cfg.Port)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "cinereview", cfg.Store.Database)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.False(t, cfg.Store.Transactions)
	assert.Equal(t, "catalog.activity", cfg.Events.Queue)
	assert.Empty(t, cfg.Events.URL)
	assert.Empty(t, cfg.S3.Endpoint)
	assert.True(t, cfg.Cache.Caches("get"))
	assert.False(t, cfg.Cache.Caches("POST"))
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.False(t, cfg.IsProd())
}

func TestFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("TOKEN_SIGN_SECRET", "")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TOKEN_SIGN_SECRET", "s3cret")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("MONGO_TRANSACTIONS", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "cache:6380", cfg.Redis.Address())
	assert.True(t, cfg.Cache.Caches("HEAD"))
	assert.True(t, cfg.Store.Transactions)
}

func TestFromEnvRejectsUnknownDriver(t *testing.T) {
	t.Setenv("TOKEN_SIGN_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestRateLimitNormalize(t *testing.T) {
	r := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: time.Second, Burst: 20}
	r.normalize()
	assert.Equal(t, 20, r.Capacity)
	assert.Equal(t, 1, r.RefillTokens)
	assert.Equal(t, time.Second, r.RefillInterval)
	assert.Equal(t, 5*time.Second, r.TTL)
	assert.Equal(t, "rl", r.Prefix)

	r = RateLimitConfig{Capacity: 5, RefillTokens: 3, RefillInterval: time.Second, TTL: time.Hour, RefillEvery: 2 * time.Second}
	r.normalize()
	assert.Equal(t, 1, r.RefillTokens)
	assert.Equal(t, 2*time.Second, r.RefillInterval)
	assert.Equal(t, time.Hour, r.TTL)
}
