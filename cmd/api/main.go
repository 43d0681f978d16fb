package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/healthhub-platform/cmd/mainconfig"
	"github.com/wolfman30/healthhub-platform/internal/admin"
	"github.com/wolfman30/healthhub-platform/internal/api/router"
	"github.com/wolfman30/healthhub-platform/internal/app/bootstrap"
	"github.com/wolfman30/healthhub-platform/internal/bookings"
	"github.com/wolfman30/healthhub-platform/internal/catalog"
	appconfig "github.com/wolfman30/healthhub-platform/internal/config"
	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	httpmiddleware "github.com/wolfman30/healthhub-platform/internal/http/middleware"
	"github.com/wolfman30/healthhub-platform/internal/locator"
	"github.com/wolfman30/healthhub-platform/internal/observability/metrics"
	"github.com/wolfman30/healthhub-platform/internal/symptoms"
	"github.com/wolfman30/healthhub-platform/internal/trends"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

const (
	sessionSweepInterval = time.Minute
	limiterEvictInterval = 5 * time.Minute
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting healthhub API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Create HTTP server. No write timeout: map event streams are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		app.sessions.Run(gctx, sessionSweepInterval, logger)
		return nil
	})
	g.Go(func() error {
		app.limiter.Run(gctx, limiterEvictInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

type application struct {
	handler   http.Handler
	sessions  *locator.SessionStore
	limiter   *httpmiddleware.RateLimiter
	replotter *locator.Replotter
	closers   []func()
}

func (a *application) Close() {
	a.replotter.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires every component from cfg. Optional backends (Redis, the
// Postgres replica, geocoding, S3 dictionaries) are skipped when unset.
func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*application, error) {
	app := &application{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	coreMetrics := metrics.NewCoreMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}

	pool, err := bootstrap.BuildPgxPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		app.closers = append(app.closers, pool.Close)
	}

	client := dataapi.NewClient(dataapi.Options{
		BaseURL: cfg.DataAPIBaseURL,
		Token:   cfg.DataAPIToken,
		Timeout: cfg.DataAPITimeout,
		Metrics: coreMetrics,
		Logger:  logger,
	})

	var loader *symptoms.DictionaryLoader
	if strings.HasPrefix(cfg.SymptomDictionaryURI, "s3://") {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		loader = symptoms.NewDictionaryLoader(mainconfig.NewS3Client(awsCfg, cfg))
	}
	classifier := symptoms.NewClassifier(bootstrap.BuildDictionary(ctx, cfg, loader, logger))

	geocoder := bootstrap.BuildGeocoder(cfg, redisClient, logger)
	loc := locator.NewLocator(geocoder, locator.Options{
		Concurrency: cfg.GeocodeConcurrency,
		RatePerSec:  cfg.GeocodeRatePerSec,
		Metrics:     coreMetrics,
		Logger:      logger,
	})
	app.sessions = locator.NewSessionStore(cfg.MapSessionIdleTTL)
	app.replotter = locator.NewReplotter(ctx, app.sessions, loc, cfg.ReplotDebounce, logger)

	catalogService := catalog.NewService(client, catalog.ServiceOptions{
		Redis:    redisClient,
		CacheTTL: cfg.FacetCacheTTL,
		Metrics:  coreMetrics,
		Logger:   logger,
	})

	trendSource := bootstrap.BuildTrendSource(pool, client)
	logger.Info("appointment trends source", "source", trendSource.Name())

	app.limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	app.handler = router.New(&router.Config{
		Logger:             logger,
		Symptoms:           symptoms.NewHandler(classifier, client, app.replotter, coreMetrics, logger),
		MapSessions:        locator.NewHandler(ctx, app.sessions, loc, client, logger),
		Catalog:            catalog.NewHandler(catalogService, logger),
		Bookings:           bookings.NewHandler(bookings.NewService(client, app.sessions, logger), logger),
		Admin:              admin.NewHandler(client, logger),
		Trends:             trends.NewHandler(trendSource, nil, coreMetrics, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        app.limiter,
	})
	return app, nil
}
