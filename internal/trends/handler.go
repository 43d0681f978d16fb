package trends

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthhub-platform/internal/http/respond"
	"github.com/wolfman30/healthhub-platform/internal/observability/metrics"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

var trendsTracer = otel.Tracer("healthhub.internal.trends")

// Response is the appointment trend payload.
type Response struct {
	Source   string       `json:"source"`
	Start    string       `json:"start"`
	End      string       `json:"end"`
	Points   []TrendPoint `json:"points"`
	Degraded bool         `json:"degraded,omitempty"`
}

// Handler serves the appointment trend chart.
type Handler struct {
	source  RecordSource
	now     func() time.Time
	metrics *metrics.CoreMetrics
	logger  *logging.Logger
}

// NewHandler creates a trends handler. now defaults to time.Now.
func NewHandler(source RecordSource, now func() time.Time, m *metrics.CoreMetrics, logger *logging.Logger) *Handler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{source: source, now: now, metrics: m, logger: logger}
}

// GetAppointmentTrends handles GET /admin/trends/appointments. An optional
// today=YYYY-MM-DD parameter pins the window end.
func (h *Handler) GetAppointmentTrends(w http.ResponseWriter, r *http.Request) {
	today := h.now()
	if raw := strings.TrimSpace(r.URL.Query().Get("today")); raw != "" {
		parsed, err := time.Parse(dayLayout, raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "today must be YYYY-MM-DD")
			return
		}
		today = parsed
	}

	ctx, span := trendsTracer.Start(r.Context(), "trends.appointments")
	defer span.End()

	start, end := Window(today)
	resp := Response{
		Source: h.source.Name(),
		Start:  start.Format(dayLayout),
		End:    end.AddDate(0, 0, -1).Format(dayLayout),
	}
	span.SetAttributes(
		attribute.String("healthhub.trend_source", resp.Source),
		attribute.String("healthhub.window_end", resp.End),
	)

	records, err := h.source.Records(ctx, start, end)
	if errors.Is(err, ErrTruncated) {
		span.RecordError(err)
		h.logger.Warn("appointment records truncated, trend may undercount", "source", resp.Source, "error", err)
		h.metrics.ObserveTrend(resp.Source, "truncated")
		resp.Points = Aggregate(records, today)
		resp.Degraded = true
		respond.JSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		span.RecordError(err)
		h.logger.Warn("appointment records unavailable, returning empty trend", "source", resp.Source, "error", err)
		h.metrics.ObserveTrend(resp.Source, "degraded")
		resp.Points = ZeroPoints(today)
		resp.Degraded = true
		respond.JSON(w, http.StatusOK, resp)
		return
	}

	h.metrics.ObserveTrend(resp.Source, "ok")
	resp.Points = Aggregate(records, today)
	respond.JSON(w, http.StatusOK, resp)
}
