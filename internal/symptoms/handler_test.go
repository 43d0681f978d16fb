package symptoms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

type stubProviders struct {
	providers []domain.Provider
	err       error
}

func (s *stubProviders) ListDoctors(context.Context) ([]domain.Provider, error) {
	return s.providers, s.err
}

type recordingReplotter struct {
	sessionID string
	providers []domain.Provider
	known     bool
}

func (r *recordingReplotter) Replot(sessionID string, providers []domain.Provider) bool {
	r.sessionID = sessionID
	r.providers = providers
	return r.known
}

func TestHandler_ClassifyTriggersReplot(t *testing.T) {
	source := &stubProviders{providers: []domain.Provider{
		provider("cardio", "Cardiologist", 5),
		provider("derm", "Dermatologist", 10),
	}}
	replotter := &recordingReplotter{known: true}
	h := NewHandler(NewClassifier(nil), source, replotter, nil, logging.Default())

	body := `{"text":"severe chest pain","session_id":"sess-1"}`
	req := httptest.NewRequest(http.MethodPost, "/symptoms/classify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Classify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Replotting)
	assert.Equal(t, OutcomeMatched, resp.Outcome)
	require.Len(t, resp.Providers, 1)
	assert.Equal(t, "cardio", resp.Providers[0].ID)
	assert.Equal(t, "sess-1", replotter.sessionID)
	assert.Len(t, replotter.providers, 1)
}

func TestHandler_BlankTextWarns(t *testing.T) {
	h := NewHandler(nil, &stubProviders{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/symptoms/classify", strings.NewReader(`{"text":"   "}`))
	rec := httptest.NewRecorder()
	h.Classify(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "warning")
}

func TestHandler_ProviderFailureDegradesToEmpty(t *testing.T) {
	h := NewHandler(nil, &stubProviders{err: errors.New("upstream down")}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/symptoms/classify", strings.NewReader(`{"text":"rash"}`))
	rec := httptest.NewRecorder()
	h.Classify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Providers)
}

func TestHandler_InvalidBody(t *testing.T) {
	h := NewHandler(nil, &stubProviders{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/symptoms/classify", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	h.Classify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListProviders(t *testing.T) {
	providers := &stubProviders{providers: []domain.Provider{{ID: "d1", Name: "Dr. One", Specialization: "Cardiologist"}}}
	h := NewHandler(nil, providers, nil, nil, logging.Default())

	rec := httptest.NewRecorder()
	h.ListProviders(rec, httptest.NewRequest(http.MethodGet, "/providers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"d1"`)

	failing := NewHandler(nil, &stubProviders{err: errors.New("down")}, nil, nil, logging.Default())
	rec = httptest.NewRecorder()
	failing.ListProviders(rec, httptest.NewRequest(http.MethodGet, "/providers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"providers":[],"degraded":true}`, rec.Body.String())
}

func TestHandler_Keywords(t *testing.T) {
	dict := Dictionary{"rash": {"derma"}, "chest pain": {"cardio"}}
	h := NewHandler(NewClassifier(dict), &stubProviders{}, nil, nil, nil)

	rec := httptest.NewRecorder()
	h.Keywords(rec, httptest.NewRequest(http.MethodGet, "/symptoms/keywords", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"keywords":["chest pain","rash"]}`, rec.Body.String())
}
