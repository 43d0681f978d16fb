package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/internal/observability/metrics"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

var catalogTracer = otel.Tracer("healthhub.internal.catalog")

const (
	// FacetSampleSize is the page size of the sample fetch that facet options
	// are derived from.
	FacetSampleSize = 100

	facetCachePrefix = "catalog:facets:v1:"
)

// ProductSource is the subset of the data API the catalog reads.
type ProductSource interface {
	ListProducts(ctx context.Context, q dataapi.ProductQuery) (*dataapi.Page[domain.Product], error)
	PersonalizedRecommendations(ctx context.Context) ([]domain.Product, error)
	DiseaseRecommendations(ctx context.Context, disease string) ([]domain.Product, error)
}

// PageResult is one refined catalog page. Pagination is the server's
// metadata, passed through unchanged.
type PageResult struct {
	Products   []domain.Product   `json:"products"`
	Pagination dataapi.Pagination `json:"pagination"`
	Facets     FacetState         `json:"facets"`
	Degraded   bool               `json:"degraded,omitempty"`
}

// OptionsResult wraps facet options with their provenance.
type OptionsResult struct {
	FacetOptions
	Cached   bool `json:"cached,omitempty"`
	Degraded bool `json:"degraded,omitempty"`
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Redis    *redis.Client
	CacheTTL time.Duration
	Metrics  *metrics.CoreMetrics
	Logger   *logging.Logger
}

// Service fetches server pages and refines them.
type Service struct {
	source   ProductSource
	redis    *redis.Client
	cacheTTL time.Duration
	metrics  *metrics.CoreMetrics
	logger   *logging.Logger
}

// NewService creates a catalog service. Facet options are cached only when a
// Redis client is supplied.
func NewService(source ProductSource, opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Service{
		source:   source,
		redis:    opts.Redis,
		cacheTTL: opts.CacheTTL,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// ListPage fetches the requested server page for category and applies the
// facet refinement. When the requested page is past the server's last page,
// the last page is fetched instead. Upstream failures produce an empty,
// degraded page.
func (s *Service) ListPage(ctx context.Context, category string, facets FacetState) PageResult {
	facets = facets.Normalize()

	ctx, span := catalogTracer.Start(ctx, "catalog.list_page")
	defer span.End()
	span.SetAttributes(
		attribute.String("healthhub.category", category),
		attribute.String("healthhub.sort", string(facets.SortKey)),
		attribute.Int("healthhub.page", facets.Page),
	)

	page, err := s.fetch(ctx, category, facets)
	if err == nil && page.Pagination.Pages > 0 && facets.Page > page.Pagination.Pages {
		facets.Page = page.Pagination.Pages
		page, err = s.fetch(ctx, category, facets)
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("catalog page unavailable", "category", category, "page", facets.Page, "error", err)
		s.metrics.ObserveCatalogQuery(string(facets.SortKey), true)
		return PageResult{
			Products:   []domain.Product{},
			Pagination: dataapi.Pagination{Page: facets.Page, Pages: 1, Limit: facets.PageSize},
			Facets:     facets,
			Degraded:   true,
		}
	}

	s.metrics.ObserveCatalogQuery(string(facets.SortKey), false)
	return PageResult{
		Products:   Query(page.Items, facets),
		Pagination: page.Pagination,
		Facets:     facets,
	}
}

func (s *Service) fetch(ctx context.Context, category string, facets FacetState) (*dataapi.Page[domain.Product], error) {
	return s.source.ListProducts(ctx, dataapi.ProductQuery{
		Page:     facets.Page,
		Limit:    facets.PageSize,
		Category: category,
	})
}

// FacetOptions derives facet options from a larger sample fetch, reading and
// filling the Redis cache when configured.
func (s *Service) FacetOptions(ctx context.Context, category string) OptionsResult {
	ctx, span := catalogTracer.Start(ctx, "catalog.facet_options")
	defer span.End()

	key := facetCacheKey(category)
	if cached, ok := s.cachedOptions(ctx, key); ok {
		return OptionsResult{FacetOptions: cached, Cached: true}
	}

	sample, err := s.source.ListProducts(ctx, dataapi.ProductQuery{Page: 1, Limit: FacetSampleSize, Category: category})
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("facet sample unavailable", "category", category, "error", err)
		return OptionsResult{FacetOptions: DeriveFacetOptions(nil), Degraded: true}
	}

	opts := DeriveFacetOptions(sample.Items)
	s.storeOptions(ctx, key, opts)
	return OptionsResult{FacetOptions: opts}
}

func (s *Service) cachedOptions(ctx context.Context, key string) (FacetOptions, bool) {
	if s.redis == nil {
		return FacetOptions{}, false
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("facet cache read failed", "error", err)
		}
		return FacetOptions{}, false
	}
	var opts FacetOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		s.logger.Warn("facet cache entry corrupt", "key", key)
		return FacetOptions{}, false
	}
	return opts, true
}

func (s *Service) storeOptions(ctx context.Context, key string, opts FacetOptions) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(opts)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("facet cache write failed", "error", err)
	}
}

func facetCacheKey(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = "_all"
	}
	return facetCachePrefix + category
}

// Recommendations returns disease recommendations when disease is set and
// personalized recommendations otherwise. Failures degrade to an empty list.
func (s *Service) Recommendations(ctx context.Context, disease string) ([]domain.Product, bool) {
	ctx, span := catalogTracer.Start(ctx, "catalog.recommendations")
	defer span.End()

	var (
		products []domain.Product
		err      error
	)
	if disease = strings.TrimSpace(disease); disease != "" {
		products, err = s.source.DiseaseRecommendations(ctx, disease)
	} else {
		products, err = s.source.PersonalizedRecommendations(ctx)
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("recommendations unavailable", "disease", disease, "error", err)
		return []domain.Product{}, true
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, false
}
