// Package locator plots providers on a per-caller map session by geocoding
// their addresses.
package locator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/internal/geocode"
	"github.com/wolfman30/healthhub-platform/internal/observability/metrics"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

var locatorTracer = otel.Tracer("healthhub.internal.locator")

// ErrSuperseded is returned by Locate when a newer pass started on the same
// session before this one finished.
var ErrSuperseded = errors.New("locator: pass superseded")

// Options tune the geocode fan-out.
type Options struct {
	Concurrency int
	RatePerSec  float64
	Metrics     *metrics.CoreMetrics
	Logger      *logging.Logger
}

// Locator geocodes provider addresses into a MapSession.
type Locator struct {
	geocoder    geocode.Geocoder
	concurrency int
	limiter     *rate.Limiter
	metrics     *metrics.CoreMetrics
	logger      *logging.Logger
}

// NewLocator builds a locator. A nil geocoder disables plotting.
func NewLocator(geocoder geocode.Geocoder, opts Options) *Locator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		burst := int(opts.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return &Locator{
		geocoder:    geocoder,
		concurrency: opts.Concurrency,
		limiter:     limiter,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// Enabled reports whether a geocoder is configured.
func (l *Locator) Enabled() bool {
	return l != nil && l.geocoder != nil
}

// Locate clears the session's markers and plots every provider whose address
// resolves. Individual lookup failures are dropped. When geocoding is not
// configured it does nothing and returns nil.
func (l *Locator) Locate(ctx context.Context, session *MapSession, providers []domain.Provider) error {
	if !l.Enabled() || session == nil {
		if l != nil {
			l.metrics.ObserveLocatePass("disabled")
		}
		return nil
	}

	passCtx, gen := session.begin(ctx)
	defer session.finish(gen)

	passCtx, span := locatorTracer.Start(passCtx, "locator.locate")
	defer span.End()
	span.SetAttributes(
		attribute.String("healthhub.map_session", session.ID),
		attribute.Int64("healthhub.generation", int64(gen)),
		attribute.Int("healthhub.providers", len(providers)),
	)

	var g errgroup.Group
	g.SetLimit(l.concurrency)

	for _, p := range providers {
		address := p.Address.SingleLine()
		if address == "" {
			l.metrics.ObserveGeocode("skipped", 0)
			continue
		}
		if passCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			l.resolve(passCtx, session, gen, p, address)
			return nil
		})
	}
	_ = g.Wait()

	if session.Generation() != gen {
		l.metrics.ObserveLocatePass("superseded")
		return ErrSuperseded
	}
	l.metrics.ObserveLocatePass("completed")
	return nil
}

func (l *Locator) resolve(ctx context.Context, session *MapSession, gen uint64, p domain.Provider, address string) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			l.metrics.ObserveStaleResult()
			return
		}
	}
	if ctx.Err() != nil {
		l.metrics.ObserveStaleResult()
		return
	}

	start := time.Now()
	pt, err := l.geocoder.Geocode(ctx, address)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		outcome := "error"
		if errors.Is(err, geocode.ErrNoResults) {
			outcome = "zero_results"
		}
		l.metrics.ObserveGeocode(outcome, elapsed)
		l.logger.Debug("geocode dropped", "provider_id", p.ID, "error", err)
		return
	}
	l.metrics.ObserveGeocode("ok", elapsed)

	if _, ok := session.apply(gen, p, *pt); !ok {
		l.metrics.ObserveStaleResult()
		l.logger.Debug("stale geocode result discarded", "provider_id", p.ID, "generation", gen)
	}
}
