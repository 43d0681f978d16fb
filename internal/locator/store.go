package locator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/healthhub-platform/internal/domain"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

// SessionStore keeps map sessions in memory and expires idle ones.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*MapSession
	idleTTL  time.Duration
}

// NewSessionStore creates a store. idleTTL <= 0 disables expiry.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*MapSession),
		idleTTL:  idleTTL,
	}
}

// Create registers a new session.
func (s *SessionStore) Create() *MapSession {
	session := NewMapSession(uuid.NewString())
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// Get returns a session and marks it active.
func (s *SessionStore) Get(id string) (*MapSession, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		session.touch()
	}
	return session, ok
}

// Delete closes and removes a session.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		session.Close()
	}
	return ok
}

// SelectedProvider returns the provider last picked on a session's map.
func (s *SessionStore) SelectedProvider(sessionID string) (string, bool) {
	session, ok := s.Get(sessionID)
	if !ok {
		return "", false
	}
	id := session.SelectedProviderID()
	return id, id != ""
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions idle since before now-idleTTL and returns how many
// were removed.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	var expired []*MapSession
	for id, session := range s.sessions {
		if session.idleSince().Before(cutoff) {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	return len(expired)
}

// Run sweeps on interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 || s.idleTTL <= 0 {
		return
	}
	if logger == nil {
		logger = logging.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				logger.Info("expired idle map sessions", "count", n, "live", s.Len())
			}
		}
	}
}

// Replotter debounces locate passes triggered by symptom classification.
type Replotter struct {
	store     *SessionStore
	locator   *Locator
	debouncer *Debouncer
	baseCtx   context.Context
	logger    *logging.Logger
}

// NewReplotter wires a debounced locate trigger. baseCtx bounds every pass.
func NewReplotter(baseCtx context.Context, store *SessionStore, locator *Locator, delay time.Duration, logger *logging.Logger) *Replotter {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Replotter{
		store:     store,
		locator:   locator,
		debouncer: NewDebouncer(delay),
		baseCtx:   baseCtx,
		logger:    logger,
	}
}

// Replot schedules a locate pass of providers on the session. It reports
// false when the session is unknown or plotting is disabled.
func (r *Replotter) Replot(sessionID string, providers []domain.Provider) bool {
	if !r.locator.Enabled() {
		return false
	}
	session, ok := r.store.Get(sessionID)
	if !ok {
		return false
	}
	subset := make([]domain.Provider, len(providers))
	copy(subset, providers)

	r.debouncer.Trigger(sessionID, func() {
		if err := r.locator.Locate(r.baseCtx, session, subset); err != nil && err != ErrSuperseded {
			r.logger.Warn("replot failed", "session_id", sessionID, "error", err)
		}
	})
	return true
}

// Stop cancels pending replots.
func (r *Replotter) Stop() {
	r.debouncer.Stop()
}
