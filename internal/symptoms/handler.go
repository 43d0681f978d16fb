package symptoms

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/internal/http/respond"
	"github.com/wolfman30/healthhub-platform/internal/observability/metrics"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

var symptomsTracer = otel.Tracer("healthhub.internal.symptoms")

// ProviderSource lists the providers to classify.
type ProviderSource interface {
	ListDoctors(ctx context.Context) ([]domain.Provider, error)
}

// Replotter schedules a map re-plot of a provider subset for a session.
// It reports false when the session does not exist.
type Replotter interface {
	Replot(sessionID string, providers []domain.Provider) bool
}

// ClassifyRequest is the POST /symptoms/classify body.
type ClassifyRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// ClassifyResponse wraps a Result with plotting status.
type ClassifyResponse struct {
	Result
	Replotting bool `json:"replotting"`
}

// Handler serves symptom classification.
type Handler struct {
	classifier *Classifier
	providers  ProviderSource
	replotter  Replotter
	metrics    *metrics.CoreMetrics
	logger     *logging.Logger
}

// NewHandler creates a symptom classification handler. replotter may be nil
// when the map feature is disabled.
func NewHandler(classifier *Classifier, providers ProviderSource, replotter Replotter, m *metrics.CoreMetrics, logger *logging.Logger) *Handler {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		classifier: classifier,
		providers:  providers,
		replotter:  replotter,
		metrics:    m,
		logger:     logger,
	}
}

// Classify handles POST /symptoms/classify
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	ctx, span := symptomsTracer.Start(r.Context(), "symptoms.classify")
	defer span.End()

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.metrics.ObserveClassify(string(OutcomeEmpty))
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"warning": "please describe your symptoms"})
		return
	}

	providers, err := h.providers.ListDoctors(ctx)
	if err != nil {
		span.RecordError(err)
		h.logger.Warn("provider list unavailable, classifying empty set", "error", err)
		providers = nil
	}

	result := h.classifier.Explain(req.Text, providers)
	h.metrics.ObserveClassify(string(result.Outcome))
	span.SetAttributes(
		attribute.String("healthhub.symptoms.outcome", string(result.Outcome)),
		attribute.Int("healthhub.symptoms.results", len(result.Providers)),
	)

	resp := ClassifyResponse{Result: result}
	if req.SessionID != "" && h.replotter != nil {
		resp.Replotting = h.replotter.Replot(req.SessionID, result.Providers)
	}

	respond.JSON(w, http.StatusOK, resp)
}

// Keywords handles GET /symptoms/keywords for symptom-entry suggestions.
func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{"keywords": h.classifier.Keywords()})
}

// ListProviders handles GET /providers. An unavailable upstream yields an
// empty list.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.providers.ListDoctors(r.Context())
	if err != nil {
		h.logger.Warn("provider list unavailable", "error", err)
		respond.JSON(w, http.StatusOK, map[string]any{"providers": []domain.Provider{}, "degraded": true})
		return
	}
	if providers == nil {
		providers = []domain.Provider{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"providers": providers})
}
