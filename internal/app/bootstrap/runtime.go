package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/healthhub-platform/internal/config"
	"github.com/wolfman30/healthhub-platform/internal/geocode"
	"github.com/wolfman30/healthhub-platform/internal/trends"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPgxPool connects the optional appointments read replica. An empty
// DATABASE_URL returns a nil pool and no error.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("appointments replica connected")
	return pool, nil
}

// BuildGeocoder returns the cached geocoder chain, or nil when geocoding is
// not configured. A nil geocoder disables map plotting.
func BuildGeocoder(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) geocode.Geocoder {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.GeocodingEnabled() {
		logger.Info("geocoding disabled; map plotting is a no-op")
		return nil
	}
	return geocode.Build(cfg.GeocodingBaseURL, cfg.GeocodingAPIKey, redisClient, cfg.GeocodeCacheTTL, logger)
}

// BuildTrendSource prefers the Postgres replica and falls back to paging the
// data API's appointment listing.
func BuildTrendSource(pool *pgxpool.Pool, lister trends.AppointmentLister) trends.RecordSource {
	if pool != nil {
		return trends.NewPostgresSource(pool)
	}
	return trends.NewAPISource(lister, 0, 0)
}
