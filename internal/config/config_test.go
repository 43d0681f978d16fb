package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEOCODING_API_KEY", "")
	t.Setenv("DATA_API_BASE_URL", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:5000/api", cfg.DataAPIBaseURL)
	assert.Equal(t, 4, cfg.GeocodeConcurrency)
	assert.Equal(t, 300*time.Millisecond, cfg.ReplotDebounce)
	assert.False(t, cfg.GeocodingEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_API_BASE_URL", "https://api.example.test/api/")
	t.Setenv("GEOCODING_API_KEY", "key-123")
	t.Setenv("GEOCODE_CONCURRENCY", "8")
	t.Setenv("GEOCODE_RATE_PER_SEC", "2.5")
	t.Setenv("FACET_CACHE_TTL", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, ,https://b.test")

	cfg := Load()

	assert.Equal(t, "https://api.example.test/api", cfg.DataAPIBaseURL)
	assert.True(t, cfg.GeocodingEnabled())
	assert.Equal(t, 8, cfg.GeocodeConcurrency)
	assert.Equal(t, 2.5, cfg.GeocodeRatePerSec)
	assert.Equal(t, time.Minute, cfg.FacetCacheTTL)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("GEOCODE_CONCURRENCY", "many")
	t.Setenv("REDIS_TLS", "maybe")
	t.Setenv("DATA_API_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 4, cfg.GeocodeConcurrency)
	assert.False(t, cfg.RedisTLS)
	assert.Equal(t, 10*time.Second, cfg.DataAPITimeout)
}
