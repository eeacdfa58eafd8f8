package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("development falls back to the dev secret", func(t *testing.T) {
		cfg := &Config{Environment: "development", Storage: "memory", JWT: JWTConfig{Expiry: time.Hour}}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DevelopmentJWTSecret, cfg.JWT.Secret)
		assert.True(t, cfg.UsesFallbackSecret())
	})

	t.Run("production requires a secret", func(t *testing.T) {
		cfg := &Config{Environment: "production", Storage: "postgres", JWT: JWTConfig{Expiry: time.Hour}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("explicit secret is kept", func(t *testing.T) {
		cfg := &Config{Environment: "production", Storage: "postgres", JWT: JWTConfig{Secret: "s3cret", Expiry: time.Hour}}
		require.NoError(t, cfg.Validate())
		assert.False(t, cfg.UsesFallbackSecret())
	})

	t.Run("unknown storage driver", func(t *testing.T) {
		cfg := &Config{Storage: "mongo", JWT: JWTConfig{Secret: "x", Expiry: time.Hour}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive expiry", func(t *testing.T) {
		cfg := &Config{Storage: "memory", JWT: JWTConfig{Secret: "x"}}
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "https://tasks.example.com")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_EXPIRY", "48h")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "7")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "https://tasks.example.com", cfg.JWT.Issuer)
	assert.Equal(t, 48*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 7*time.Second, cfg.Context.RequestTimeout)
	assert.True(t, cfg.UsesFallbackSecret())
	assert.Contains(t, cfg.Database.URL, ":pw@")
	assert.False(t, cfg.IsProduction())
}
