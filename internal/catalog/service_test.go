package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	"github.com/wolfman30/healthhub-platform/internal/domain"
)

type stubSource struct {
	mu         sync.Mutex
	pages      map[int][]domain.Product
	totalPages int
	err        error
	queries    []dataapi.ProductQuery
	personal   []domain.Product
	disease    map[string][]domain.Product
}

func (s *stubSource) ListProducts(_ context.Context, q dataapi.ProductQuery) (*dataapi.Page[domain.Product], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return &dataapi.Page[domain.Product]{
		Items:      s.pages[q.Page],
		Pagination: dataapi.Pagination{Page: q.Page, Pages: s.totalPages, Limit: q.Limit, Total: 42},
	}, nil
}

func (s *stubSource) PersonalizedRecommendations(context.Context) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.personal, nil
}

func (s *stubSource) DiseaseRecommendations(_ context.Context, disease string) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.disease[disease], nil
}

func (s *stubSource) calls() []dataapi.ProductQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dataapi.ProductQuery(nil), s.queries...)
}

func TestService_ListPageRefinesServerPage(t *testing.T) {
	src := &stubSource{
		pages: map[int][]domain.Product{
			2: {product("a", "Acme", 30, 1), product("b", "Globex", 10, 3), product("c", "Acme", 20, 9)},
		},
		totalPages: 4,
	}
	svc := NewService(src, ServiceOptions{})

	res := svc.ListPage(context.Background(), "vitamins", FacetState{
		SelectedBrands: []string{"Acme"},
		SortKey:        SortPriceAsc,
		Page:           2,
		PageSize:       3,
	})

	assert.False(t, res.Degraded)
	assert.Equal(t, []string{"c", "a"}, ids(res.Products))
	assert.Equal(t, dataapi.Pagination{Page: 2, Pages: 4, Limit: 3, Total: 42}, res.Pagination)
	assert.Equal(t, []dataapi.ProductQuery{{Page: 2, Limit: 3, Category: "vitamins"}}, src.calls())
}

func TestService_ListPageClampsToLastPage(t *testing.T) {
	src := &stubSource{
		pages:      map[int][]domain.Product{3: {product("last", "", 1, 0)}},
		totalPages: 3,
	}
	svc := NewService(src, ServiceOptions{})

	res := svc.ListPage(context.Background(), "", FacetState{Page: 9})

	assert.Equal(t, []string{"last"}, ids(res.Products))
	assert.Equal(t, 3, res.Facets.Page)
	calls := src.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 9, calls[0].Page)
	assert.Equal(t, 3, calls[1].Page)
}

func TestService_ListPageDegradesOnFailure(t *testing.T) {
	svc := NewService(&stubSource{err: &dataapi.APIError{Operation: "list_products", Status: 503}}, ServiceOptions{})

	res := svc.ListPage(context.Background(), "", FacetState{})

	assert.True(t, res.Degraded)
	assert.NotNil(t, res.Products)
	assert.Empty(t, res.Products)
	assert.Equal(t, 1, res.Pagination.Pages)
}

func TestService_FacetOptionsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	src := &stubSource{
		pages: map[int][]domain.Product{
			1: {
				{ID: "1", Category: "Vitamins", Brand: "Acme", Price: 12},
				{ID: "2", Category: "Devices", Brand: "Globex", Price: 99},
			},
		},
		totalPages: 1,
	}
	svc := NewService(src, ServiceOptions{Redis: rdb})

	first := svc.FacetOptions(context.Background(), "")
	assert.False(t, first.Cached)
	assert.Equal(t, []string{"Acme", "Globex"}, first.Brands)

	second := svc.FacetOptions(context.Background(), "")
	assert.True(t, second.Cached)
	assert.Equal(t, first.FacetOptions, second.FacetOptions)

	calls := src.calls()
	require.Len(t, calls, 1, "second lookup must be served from cache")
	assert.Equal(t, FacetSampleSize, calls[0].Limit)
	assert.True(t, mr.Exists(facetCachePrefix+"_all"))
	assert.Greater(t, int64(mr.TTL(facetCachePrefix+"_all")), int64(0))
}

func TestService_FacetOptionsFailureNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewService(&stubSource{err: errors.New("boom")}, ServiceOptions{Redis: rdb})

	res := svc.FacetOptions(context.Background(), "Devices")
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Brands)
	assert.False(t, mr.Exists(facetCachePrefix+"devices"))
}

func TestService_Recommendations(t *testing.T) {
	src := &stubSource{
		personal: []domain.Product{product("p", "", 1, 0)},
		disease:  map[string][]domain.Product{"diabetes": {product("d", "", 1, 0)}},
	}
	svc := NewService(src, ServiceOptions{})

	got, degraded := svc.Recommendations(context.Background(), "")
	assert.False(t, degraded)
	assert.Equal(t, []string{"p"}, ids(got))

	got, _ = svc.Recommendations(context.Background(), " diabetes ")
	assert.Equal(t, []string{"d"}, ids(got))

	got, degraded = NewService(&stubSource{err: errors.New("down")}, ServiceOptions{}).Recommendations(context.Background(), "")
	assert.True(t, degraded)
	assert.Empty(t, got)
}

func TestHandler_ListProducts(t *testing.T) {
	src := &stubSource{
		pages:      map[int][]domain.Product{1: {product("p50", "", 50, 0), product("p100", "", 100, 0), product("p150", "", 150, 0)}},
		totalPages: 1,
	}
	r := chi.NewRouter()
	r.Mount("/catalog", NewHandler(NewService(src, ServiceOptions{}), nil).Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog/products?min_price=100&max_price=100", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body PageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"p100"}, ids(body.Products))
	assert.Equal(t, 1, body.Pagination.Pages)

	bad := httptest.NewRecorder()
	r.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/catalog/products?page=x", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestHandler_FacetsAndRecommendations(t *testing.T) {
	src := &stubSource{
		pages:      map[int][]domain.Product{1: {{ID: "1", Category: "Vitamins", Brand: "Acme", Price: 12}}},
		totalPages: 1,
		personal:   []domain.Product{product("rec", "", 1, 0)},
	}
	r := chi.NewRouter()
	r.Mount("/catalog", NewHandler(NewService(src, ServiceOptions{}), nil).Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog/facets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"categories":["Vitamins"],"brands":["Acme"],"min_price":12,"max_price":12}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog/recommendations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rec"`)
}
