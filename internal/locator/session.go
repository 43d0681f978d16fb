package locator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/healthhub-platform/internal/domain"
)

// DefaultZoom is the zoom level set by the first resolved marker of a session.
const DefaultZoom = 12

// Marker is a plotted provider.
type Marker struct {
	ID             string          `json:"id"`
	ProviderID     string          `json:"provider_id"`
	ProviderName   string          `json:"provider_name"`
	Specialization string          `json:"specialization,omitempty"`
	Position       domain.GeoPoint `json:"position"`
	Generation     uint64          `json:"generation"`
}

// MapView is the map's center and zoom.
type MapView struct {
	Center domain.GeoPoint `json:"center"`
	Zoom   int             `json:"zoom"`
}

// EventType identifies a session event.
type EventType string

const (
	EventCleared  EventType = "cleared"
	EventMarker   EventType = "marker"
	EventView     EventType = "view"
	EventSelected EventType = "selected"
)

// Event is pushed to session subscribers as the map changes.
type Event struct {
	Type       EventType `json:"type"`
	Generation uint64    `json:"generation"`
	Marker     *Marker   `json:"marker,omitempty"`
	View       *MapView  `json:"view,omitempty"`
	ProviderID string    `json:"provider_id,omitempty"`
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID                 string   `json:"id"`
	Generation         uint64   `json:"generation"`
	Markers            []Marker `json:"markers"`
	View               *MapView `json:"view,omitempty"`
	SelectedProviderID string   `json:"selected_provider_id,omitempty"`
}

// MapSession owns one map's markers. Each locate pass runs under a new
// generation; results carrying an older generation are discarded.
type MapSession struct {
	ID string

	mu          sync.Mutex
	generation  uint64
	cancel      context.CancelFunc
	markers     []*Marker
	byID        map[string]*Marker
	points      map[string]domain.GeoPoint
	view        *MapView
	selected    string
	subscribers map[int]chan Event
	nextSubID   int
	lastActive  time.Time
	closed      bool
}

// NewMapSession creates an empty session.
func NewMapSession(id string) *MapSession {
	if id == "" {
		id = uuid.NewString()
	}
	return &MapSession{
		ID:          id,
		byID:        make(map[string]*Marker),
		points:      make(map[string]domain.GeoPoint),
		subscribers: make(map[int]chan Event),
		lastActive:  time.Now(),
	}
}

// begin starts a new generation: the previous pass is cancelled and all
// markers are detached.
func (s *MapSession) begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.generation++
	s.cancel = cancel
	s.markers = nil
	s.byID = make(map[string]*Marker)
	s.points = make(map[string]domain.GeoPoint)
	s.lastActive = time.Now()
	if s.closed {
		cancel()
	}
	s.publishLocked(Event{Type: EventCleared, Generation: s.generation})
	return ctx, s.generation
}

// finish releases the pass context if gen is still current.
func (s *MapSession) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// apply adds a marker for a resolved provider unless gen is stale.
func (s *MapSession) apply(gen uint64, p domain.Provider, pt domain.GeoPoint) (*Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.closed {
		return nil, false
	}

	m := &Marker{
		ID:             uuid.NewString(),
		ProviderID:     p.ID,
		ProviderName:   p.Name,
		Specialization: p.Specialization,
		Position:       pt,
		Generation:     gen,
	}
	s.markers = append(s.markers, m)
	s.byID[m.ID] = m
	s.points[p.ID] = pt

	if s.view == nil {
		s.view = &MapView{Center: pt, Zoom: DefaultZoom}
		view := *s.view
		s.publishLocked(Event{Type: EventView, Generation: gen, View: &view})
	}
	copied := *m
	s.publishLocked(Event{Type: EventMarker, Generation: gen, Marker: &copied})
	return m, true
}

// Generation returns the current pass generation.
func (s *MapSession) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// resolvedPoints returns the provider id -> coordinate map of the current pass.
func (s *MapSession) resolvedPoints() map[string]domain.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.GeoPoint, len(s.points))
	for k, v := range s.points {
		out[k] = v
	}
	return out
}

// Select reverse-maps a clicked marker to its provider and records it as the
// booking selection.
func (s *MapSession) Select(markerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[markerID]
	if !ok {
		return "", false
	}
	s.selected = m.ProviderID
	s.lastActive = time.Now()
	s.publishLocked(Event{Type: EventSelected, Generation: s.generation, ProviderID: m.ProviderID})
	return m.ProviderID, true
}

// SelectedProviderID returns the provider picked on the map, if any.
func (s *MapSession) SelectedProviderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Snapshot copies the session state.
func (s *MapSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:                 s.ID,
		Generation:         s.generation,
		Markers:            make([]Marker, 0, len(s.markers)),
		SelectedProviderID: s.selected,
	}
	for _, m := range s.markers {
		snap.Markers = append(snap.Markers, *m)
	}
	if s.view != nil {
		view := *s.view
		snap.View = &view
	}
	return snap
}

// Subscribe registers for events. Slow subscribers drop events rather than
// block the locate pass.
func (s *MapSession) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if existing, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(existing)
			}
		})
	}
}

// Close cancels any running pass and disconnects subscribers.
func (s *MapSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *MapSession) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *MapSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *MapSession) publishLocked(ev Event) {
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
