package storage

import (
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"sync"
)

// EventTracker remembers the aggregates a repository handed out or stored
// so their queued events can be collected once the unit of work commits.
type EventTracker struct {
	seenMu sync.Mutex
	seen   map[string]domain.EventSource
}

func NewEventTracker() *EventTracker {
	return &EventTracker{seen: make(map[string]domain.EventSource)}
}

func (t *EventTracker) MarkSeen(key string, src domain.EventSource) {
	t.seenMu.Lock()
	t.seen[key] = src
	t.seenMu.Unlock()
}

func (t *EventTracker) CollectEvents() []domain.Event {
	t.seenMu.Lock()
	defer t.seenMu.Unlock()

	var events []domain.Event
	for _, src := range t.seen {
		events = append(events, src.PopEvents()...)
	}
	t.seen = make(map[string]domain.EventSource)
	return events
}

func (t *EventTracker) Clear() {
	t.seenMu.Lock()
	t.seen = make(map[string]domain.EventSource)
	t.seenMu.Unlock()
}
