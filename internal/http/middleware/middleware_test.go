package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/catalog/products", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/catalog/products", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code, "buckets are per IP")
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	limiter.Allow("10.0.0.1")

	assert.Zero(t, limiter.Evict(time.Now()))
	assert.Equal(t, 1, limiter.Evict(time.Now().Add(time.Hour)))
}

func TestForwardBearer(t *testing.T) {
	var got string
	var present bool
	handler := ForwardBearer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = dataapi.TokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, present)
	assert.Equal(t, "user-token", got)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/doctors", nil))
	assert.False(t, present)
}

func TestRequireBearer(t *testing.T) {
	called := false
	handler := RequireBearer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.Header.Set("Authorization", "bearer admin-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.True(t, called)
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", "json")
	handler := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/healthz"`)
	assert.Contains(t, out, `"component":"http"`)
	assert.Contains(t, out, `"request_id":"`)
}

func TestRequestLoggerIncludesTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", "json")
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	traceID := trace.TraceID{0x0a, 0x0b, 0x0c, 0x0d, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8}})
	req := httptest.NewRequest(http.MethodGet, "/catalog/products", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"trace_id":"`+traceID.String()+`"`)
}
