package bookings

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	"github.com/wolfman30/healthhub-platform/internal/http/respond"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

// Handler serves the booking endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// CreateAppointment handles POST /appointments
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appt, err := h.service.Book(r.Context(), req)
	if err != nil {
		status := dataapi.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("booking failed", "error", err)
		}
		respond.Error(w, status, dataapi.PublicMessage(err))
		return
	}
	respond.JSON(w, http.StatusCreated, appt)
}
