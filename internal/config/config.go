package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Data API (the upstream REST service that owns providers, products and appointments)
	DataAPIBaseURL string
	DataAPIToken   string
	DataAPITimeout time.Duration

	// Geocoding
	GeocodingAPIKey    string
	GeocodingBaseURL   string
	GeocodeConcurrency int
	GeocodeRatePerSec  float64
	GeocodeCacheTTL    time.Duration
	ReplotDebounce     time.Duration
	MapSessionIdleTTL  time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	FacetCacheTTL time.Duration

	// Optional read replica for appointment trends
	DatabaseURL string

	// Symptom dictionary override (file path or s3://bucket/key)
	SymptomDictionaryURI string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// HTTP edge
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataAPIBaseURL: strings.TrimRight(getEnv("DATA_API_BASE_URL", "http://localhost:5000/api"), "/"),
		DataAPIToken:   getEnv("DATA_API_TOKEN", ""),
		DataAPITimeout: getEnvAsDuration("DATA_API_TIMEOUT", 10*time.Second),

		GeocodingAPIKey:    getEnv("GEOCODING_API_KEY", ""),
		GeocodingBaseURL:   getEnv("GEOCODING_BASE_URL", "https://maps.googleapis.com"),
		GeocodeConcurrency: getEnvAsInt("GEOCODE_CONCURRENCY", 4),
		GeocodeRatePerSec:  getEnvAsFloat("GEOCODE_RATE_PER_SEC", 10),
		GeocodeCacheTTL:    getEnvAsDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
		ReplotDebounce:     getEnvAsDuration("REPLOT_DEBOUNCE", 300*time.Millisecond),
		MapSessionIdleTTL:  getEnvAsDuration("MAP_SESSION_IDLE_TTL", 30*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		FacetCacheTTL: getEnvAsDuration("FACET_CACHE_TTL", 10*time.Minute),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		SymptomDictionaryURI: getEnv("SYMPTOM_DICTIONARY_URI", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),
	}
}

// GeocodingEnabled reports whether the geocoding capability is configured.
func (c *Config) GeocodingEnabled() bool {
	return c != nil && strings.TrimSpace(c.GeocodingAPIKey) != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
