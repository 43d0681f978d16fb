package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// CoreMetrics exposes counters/histograms for the classifier, locator,
// catalog and trend flows plus upstream API calls.
type CoreMetrics struct {
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	classifyTotal   *prometheus.CounterVec
	geocodeTotal    *prometheus.CounterVec
	geocodeLatency  prometheus.Histogram
	locatePasses    *prometheus.CounterVec
	staleResults    prometheus.Counter
	catalogQueries  *prometheus.CounterVec
	trendTotal      *prometheus.CounterVec
}

func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	m := &CoreMetrics{
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthhub",
			Subsystem: "dataapi",
			Name:      "requests_total",
			Help:      "Total requests sent to the upstream data API",
		}, []string{"operation", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "healthhub",
			Subsystem: "dataapi",
			Name:      "request_latency_seconds",
			Help:      "Latency of upstream data API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		classifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthhub",
			Subsystem: "symptoms",
			Name:      "classify_total",
			Help:      "Symptom classifications by outcome",
		}, []string{"outcome"}),
		geocodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthhub",
			Subsystem: "locator",
			Name:      "geocode_total",
			Help:      "Per-provider geocode attempts by outcome",
		}, []string{"outcome"}),
		geocodeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "healthhub",
			Subsystem: "locator",
			Name:      "geocode_latency_seconds",
			Help:      "Latency of individual geocode lookups",
			Buckets:   prometheus.DefBuckets,
		}),
		locatePasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthhub",
			Subsystem: "locator",
			Name:      "passes_total",
			Help:      "Locate passes by outcome",
		}, []string{"outcome"}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "healthhub",
			Subsystem: "locator",
			Name:      "stale_results_total",
			Help:      "Geocode results discarded because their pass was superseded",
		}),
		catalogQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthhub",
			Subsystem: "catalog",
			Name:      "queries_total",
			Help:      "Catalog page queries by sort key",
		}, []string{"sort", "degraded"}),
		trendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "healthhub",
			Subsystem: "trends",
			Name:      "aggregations_total",
			Help:      "Trend aggregations by record source and outcome",
		}, []string{"source", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.upstreamTotal,
		m.upstreamLatency,
		m.classifyTotal,
		m.geocodeTotal,
		m.geocodeLatency,
		m.locatePasses,
		m.staleResults,
		m.catalogQueries,
		m.trendTotal,
	)
	return m
}

func (m *CoreMetrics) ObserveUpstream(operation string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamTotal.WithLabelValues(operation, label).Inc()
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *CoreMetrics) ObserveClassify(outcome string) {
	if m == nil {
		return
	}
	m.classifyTotal.WithLabelValues(outcome).Inc()
}

func (m *CoreMetrics) ObserveGeocode(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.geocodeTotal.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		m.geocodeLatency.Observe(seconds)
	}
}

func (m *CoreMetrics) ObserveLocatePass(outcome string) {
	if m == nil {
		return
	}
	m.locatePasses.WithLabelValues(outcome).Inc()
}

func (m *CoreMetrics) ObserveStaleResult() {
	if m == nil {
		return
	}
	m.staleResults.Inc()
}

func (m *CoreMetrics) ObserveCatalogQuery(sortKey string, degraded bool) {
	if m == nil {
		return
	}
	m.catalogQueries.WithLabelValues(sortKey, strconv.FormatBool(degraded)).Inc()
}

func (m *CoreMetrics) ObserveTrend(source, outcome string) {
	if m == nil {
		return
	}
	m.trendTotal.WithLabelValues(source, outcome).Inc()
}
