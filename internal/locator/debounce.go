package locator

import (
	"sync"
	"time"
)

// Debouncer runs the last function triggered for a key once the key has
// been quiet for the configured delay.
type Debouncer struct {
	delay  time.Duration
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDebouncer creates a trailing-edge debouncer.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

// Trigger schedules fn for key, replacing any pending function.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

// Cancel drops the pending function for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// Stop drops every pending function.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
