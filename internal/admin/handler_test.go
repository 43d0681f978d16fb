package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
)

type upstream struct {
	calls atomic.Int32
	last  atomic.Value
}

func newRouter(t *testing.T, handler http.HandlerFunc) (http.Handler, *upstream) {
	t.Helper()
	up := &upstream{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.calls.Add(1)
		up.last.Store(r.Method + " " + r.URL.RequestURI())
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	client := dataapi.NewClient(dataapi.Options{BaseURL: ts.URL})
	r := chi.NewRouter()
	r.Mount("/admin", NewHandler(client, nil).Routes())
	return r, up
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestRejectWithoutReasonNeverReachesUpstream(t *testing.T) {
	router, up := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := serve(router, http.MethodPost, "/admin/verifications/v1/reject", `{"notes":"blurry license"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "rejection reason is required")
	assert.Zero(t, up.calls.Load())
}

func TestRejectWithReason(t *testing.T) {
	var body map[string]string
	router, up := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"data":{"id":"v1"}}`))
	})

	rec := serve(router, http.MethodPost, "/admin/verifications/v1/reject", `{"reason":"expired","notes":"n"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POST /admin/verifications/v1/reject", up.last.Load())
	assert.Equal(t, map[string]string{"reason": "expired", "notes": "n"}, body)
}

func TestApproveWithEmptyBody(t *testing.T) {
	router, up := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	rec := serve(router, http.MethodPost, "/admin/verifications/v9/approve", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POST /admin/verifications/v9/approve", up.last.Load())
}

func TestListPassesPaginationThrough(t *testing.T) {
	router, up := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"p1"},{"id":"p2"}],"pagination":{"page":2,"pages":7,"limit":2,"total":13}}`))
	})

	rec := serve(router, http.MethodGet, "/admin/patients?page=2&limit=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET /admin/patients?limit=2&page=2", up.last.Load())
	assert.JSONEq(t, `{"items":[{"id":"p1"},{"id":"p2"}],"pagination":{"page":2,"pages":7,"limit":2,"total":13}}`, rec.Body.String())
}

func TestListDegradesOnUpstreamFailure(t *testing.T) {
	router, _ := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"db down"}`, http.StatusInternalServerError)
	})

	rec := serve(router, http.MethodGet, "/admin/appointments", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"pagination":{"page":1,"pages":1,"limit":10},"degraded":true}`, rec.Body.String())
}

func TestListUnknownResource(t *testing.T) {
	router, up := newRouter(t, func(w http.ResponseWriter, r *http.Request) {})

	rec := serve(router, http.MethodGet, "/admin/users", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, up.calls.Load())
}

func TestUserMutations(t *testing.T) {
	router, up := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	rec := serve(router, http.MethodPatch, "/admin/users/u1/toggle-status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PATCH /admin/users/u1/toggle-status", up.last.Load())

	rec = serve(router, http.MethodDelete, "/admin/users/u1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "DELETE /admin/users/u1", up.last.Load())
}

func TestGetVerificationPassesNotFound(t *testing.T) {
	router, _ := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"verification not found"}`))
	})

	rec := serve(router, http.MethodGet, "/admin/verifications/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"verification not found"}`, rec.Body.String())
}

func TestStatsAndPending(t *testing.T) {
	router, _ := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/stats":
			_, _ = w.Write([]byte(`{"data":{"doctors":4}}`))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	})

	rec := serve(router, http.MethodGet, "/admin/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stats":{"doctors":4}}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/admin/verifications/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}
