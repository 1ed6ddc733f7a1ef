package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/storefront",
		"REDIS_URL":    "redis://localhost:6379",
		"PRICING_URL":  "http://pricing.internal",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 5*time.Second, cfg.PricingTimeout)
	require.Equal(t, 3, cfg.PricingMaxAttempts)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, "sliding", cfg.RateLimitDriver)
	require.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":      "postgres://localhost/storefront",
		"REDIS_URL":         "redis://localhost:6379",
		"PRICING_URL":       "http://pricing.internal",
		"PORT":              "9090",
		"SESSION_TTL":       "10m",
		"RATE_LIMIT_MAX":    "50",
		"RATE_LIMIT_DRIVER": "store",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 10*time.Minute, cfg.SessionTTL)
	require.Equal(t, 50, cfg.RateLimitMax)
	require.Equal(t, "store", cfg.RateLimitDriver)
}

func TestLoadRequiresCoreSettings(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
		"PRICING_URL":  "http://pricing.internal",
	})
	require.Error(t, err)

	_, err = LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/storefront",
		"REDIS_URL":    "redis://localhost:6379",
		"PRICING_URL":  "",
	})
	require.Error(t, err)
}
