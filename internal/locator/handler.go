package locator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/internal/http/respond"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

// ProviderSource lists providers to plot.
type ProviderSource interface {
	ListDoctors(ctx context.Context) ([]domain.Provider, error)
}

// LocateRequest optionally restricts a pass to specific providers.
type LocateRequest struct {
	ProviderIDs []string `json:"provider_ids,omitempty"`
}

// Handler exposes map sessions over HTTP and websocket.
type Handler struct {
	store     *SessionStore
	locator   *Locator
	providers ProviderSource
	baseCtx   context.Context
	logger    *logging.Logger
}

// NewHandler creates a map session handler. baseCtx outlives requests and
// bounds asynchronous locate passes.
func NewHandler(baseCtx context.Context, store *SessionStore, locator *Locator, providers ProviderSource, logger *logging.Logger) *Handler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:     store,
		locator:   locator,
		providers: providers,
		baseCtx:   baseCtx,
		logger:    logger,
	}
}

// Routes returns a chi router with the map session routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/locate", h.Locate)
		r.Post("/markers/{markerID}/select", h.SelectMarker)
		r.Get("/events", h.Events)
	})
	return r
}

// CreateSession handles POST /map/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.store.Create()
	respond.JSON(w, http.StatusCreated, map[string]any{
		"session": session.Snapshot(),
		"enabled": h.locator.Enabled(),
	})
}

// GetSession handles GET /map/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, session.Snapshot())
}

// DeleteSession handles DELETE /map/sessions/{sessionID}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(chi.URLParam(r, "sessionID")) {
		respond.Error(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Locate handles POST /map/sessions/{sessionID}/locate. The pass runs in
// the background; progress is delivered over the events stream.
func (h *Handler) Locate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if !h.locator.Enabled() {
		respond.JSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}

	var req LocateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	providers, err := h.providers.ListDoctors(r.Context())
	if err != nil {
		h.logger.Warn("provider list unavailable, plotting nothing", "error", err)
		providers = nil
	}
	providers = filterProviders(providers, req.ProviderIDs)

	go func() {
		if err := h.locator.Locate(h.baseCtx, session, providers); err != nil && !errors.Is(err, ErrSuperseded) {
			h.logger.Warn("locate pass failed", "session_id", session.ID, "error", err)
		}
	}()

	respond.JSON(w, http.StatusAccepted, map[string]any{
		"enabled":   true,
		"providers": len(providers),
	})
}

// SelectMarker handles POST /map/sessions/{sessionID}/markers/{markerID}/select
func (h *Handler) SelectMarker(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	providerID, found := session.Select(chi.URLParam(r, "markerID"))
	if !found {
		respond.Error(w, http.StatusNotFound, "marker not found")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"provider_id": providerID})
}

// Events handles GET /map/sessions/{sessionID}/events as a websocket stream:
// a snapshot first, then one JSON message per session event.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveEvents(conn, session)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveEvents(conn *websocket.Conn, session *MapSession) {
	events, unsubscribe := session.Subscribe(64)
	defer unsubscribe()

	if err := websocket.JSON.Send(conn, map[string]any{"type": "snapshot", "session": session.Snapshot()}); err != nil {
		return
	}

	// Reader goroutine detects client disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var discard json.RawMessage
		for {
			if err := websocket.JSON.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-h.baseCtx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if err := websocket.JSON.Send(conn, ev); err != nil {
				h.logger.Debug("event stream closed", "session_id", session.ID, "error", err)
				return
			}
		}
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*MapSession, bool) {
	session, ok := h.store.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		respond.Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return session, true
}

func filterProviders(providers []domain.Provider, ids []string) []domain.Provider {
	if len(ids) == 0 {
		return providers
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]domain.Provider, 0, len(ids))
	for _, p := range providers {
		if _, ok := wanted[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
