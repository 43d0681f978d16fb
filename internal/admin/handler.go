// Package admin exposes the administrative data API operations behind the
// service's own routes.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/healthhub-platform/internal/dataapi"
	"github.com/wolfman30/healthhub-platform/internal/http/respond"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

const defaultListLimit = 10

// API is the subset of the data API used by the admin routes.
type API interface {
	ListAdmin(ctx context.Context, resource dataapi.AdminResource, page, limit int) (*dataapi.Page[json.RawMessage], error)
	AdminStats(ctx context.Context) (json.RawMessage, error)
	PendingVerifications(ctx context.Context) ([]json.RawMessage, error)
	GetVerification(ctx context.Context, id string) (json.RawMessage, error)
	ApproveVerification(ctx context.Context, id, notes string) error
	RejectVerification(ctx context.Context, id, reason, notes string) error
	ToggleUserStatus(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
}

type listResponse struct {
	Items      []json.RawMessage  `json:"items"`
	Pagination dataapi.Pagination `json:"pagination"`
	Degraded   bool               `json:"degraded,omitempty"`
}

// ReviewRequest is the approve/reject body.
type ReviewRequest struct {
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Handler serves admin routes. Reads degrade to empty results when the data
// API fails; mutations report the failure.
type Handler struct {
	api    API
	logger *logging.Logger
}

func NewHandler(api API, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{api: api, logger: logger}
}

// Routes returns a chi router with the admin routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/stats", h.Stats)
	r.Get("/verifications/pending", h.PendingVerifications)
	r.Get("/verifications/{id}", h.GetVerification)
	r.Post("/verifications/{id}/approve", h.ApproveVerification)
	r.Post("/verifications/{id}/reject", h.RejectVerification)
	r.Patch("/users/{id}/toggle-status", h.ToggleUserStatus)
	r.Delete("/users/{id}", h.DeleteUser)
	r.Get("/{resource}", h.List)
	return r
}

// List handles GET /admin/{resource}
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	resource, ok := dataapi.ParseAdminResource(chi.URLParam(r, "resource"))
	if !ok {
		respond.Error(w, http.StatusNotFound, "unknown admin resource")
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultListLimit)

	res, err := h.api.ListAdmin(r.Context(), resource, page, limit)
	if err != nil {
		h.logger.Warn("admin listing unavailable", "resource", resource, "error", err)
		respond.JSON(w, http.StatusOK, listResponse{
			Items:      []json.RawMessage{},
			Pagination: dataapi.Pagination{Page: page, Pages: 1, Limit: limit},
			Degraded:   true,
		})
		return
	}
	respond.JSON(w, http.StatusOK, listResponse{Items: res.Items, Pagination: res.Pagination})
}

// Stats handles GET /admin/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.api.AdminStats(r.Context())
	if err != nil {
		h.logger.Warn("admin stats unavailable", "error", err)
		respond.JSON(w, http.StatusOK, map[string]any{"stats": map[string]any{}, "degraded": true})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// PendingVerifications handles GET /admin/verifications/pending
func (h *Handler) PendingVerifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.api.PendingVerifications(r.Context())
	if err != nil {
		h.logger.Warn("pending verifications unavailable", "error", err)
		respond.JSON(w, http.StatusOK, map[string]any{"items": []json.RawMessage{}, "degraded": true})
		return
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// GetVerification handles GET /admin/verifications/{id}
func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	item, err := h.api.GetVerification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get verification", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"verification": item})
}

// ApproveVerification handles POST /admin/verifications/{id}/approve
func (h *Handler) ApproveVerification(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}
	if err := h.api.ApproveVerification(r.Context(), chi.URLParam(r, "id"), req.Notes); err != nil {
		h.writeError(w, "approve verification", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// RejectVerification handles POST /admin/verifications/{id}/reject. A reason
// is required; the data API is not called without one.
func (h *Handler) RejectVerification(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}
	if err := h.api.RejectVerification(r.Context(), chi.URLParam(r, "id"), req.Reason, req.Notes); err != nil {
		h.writeError(w, "reject verification", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// ToggleUserStatus handles PATCH /admin/users/{id}/toggle-status
func (h *Handler) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.api.ToggleUserStatus(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "toggle user status", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "toggled"})
}

// DeleteUser handles DELETE /admin/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.api.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status := dataapi.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("admin operation failed", "operation", op, "error", err)
	}
	respond.Error(w, status, dataapi.PublicMessage(err))
}

func decodeReview(w http.ResponseWriter, r *http.Request) (ReviewRequest, bool) {
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return ReviewRequest{}, false
	}
	return req, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
