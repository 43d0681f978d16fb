package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/wolfman30/healthhub-platform/internal/config"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		DataAPIBaseURL: "http://127.0.0.1:1",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
}

func TestBuildAppServesHealthAndMetrics(t *testing.T) {
	app, err := buildApp(context.Background(), testConfig(), logging.New("error"))
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer app.Close()

	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	// Trigger an upstream failure so the dataapi counter has a sample.
	rr = httptest.NewRecorder()
	app.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/providers", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"degraded":true`) {
		t.Fatalf("expected degraded provider listing, got %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	app.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "healthhub_dataapi_requests_total") {
		t.Fatalf("expected data API counter to be exported")
	}
}

func TestBuildAppWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	app, err := buildApp(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer app.Close()

	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/catalog/facets", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("failed facet fetches must not be cached, got keys %v", mr.Keys())
	}
}

func TestBuildAppInvalidDatabaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "::not a url::"
	if _, err := buildApp(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error for malformed DATABASE_URL")
	}
}
