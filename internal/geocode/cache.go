package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

const cacheKeyPrefix = "geocode:v1:"

// CachedGeocoder is a Redis read-through cache in front of a Geocoder. Only
// successful lookups are cached; failures always reach the upstream.
type CachedGeocoder struct {
	next   Geocoder
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedGeocoder wraps next. A nil redis client returns next unchanged.
func NewCachedGeocoder(next Geocoder, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) Geocoder {
	if next == nil {
		return nil
	}
	if redisClient == nil {
		return next
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedGeocoder{next: next, redis: redisClient, ttl: ttl, logger: logger}
}

// Geocode returns the cached point for address or resolves and stores it.
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (*domain.GeoPoint, error) {
	key := cacheKey(address)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var pt domain.GeoPoint
		if jsonErr := json.Unmarshal(data, &pt); jsonErr == nil {
			return &pt, nil
		}
		c.logger.Warn("geocode cache entry corrupt", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("geocode cache read failed", "error", err)
	}

	pt, err := c.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(pt); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("geocode cache write failed", "error", err)
		}
	}
	return pt, nil
}

func cacheKey(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Build returns the configured geocoder chain, or nil when no API key is set.
func Build(baseURL, apiKey string, redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) Geocoder {
	client := NewClient(baseURL, apiKey, logger)
	if client == nil {
		return nil
	}
	return NewCachedGeocoder(client, redisClient, ttl, logger)
}
