package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/internal/http/respond"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

// Handler serves the catalog endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi router with the catalog routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/products", h.ListProducts)
	r.Get("/facets", h.Facets)
	r.Get("/recommendations", h.Recommendations)
	return r
}

// ListProducts handles GET /catalog/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	facets, err := ParseFacetState(r.URL.Query())
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, h.service.ListPage(r.Context(), r.URL.Query().Get("category"), facets))
}

// Facets handles GET /catalog/facets
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.service.FacetOptions(r.Context(), r.URL.Query().Get("category")))
}

// Recommendations handles GET /catalog/recommendations
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	products, degraded := h.service.Recommendations(r.Context(), r.URL.Query().Get("disease"))
	respond.JSON(w, http.StatusOK, struct {
		Products []domain.Product `json:"products"`
		Degraded bool             `json:"degraded,omitempty"`
	}{products, degraded})
}
