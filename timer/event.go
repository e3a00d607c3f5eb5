package timer

import (
	"slices"
	"sync"

	"github.com/ayoisaiah/notch/internal/models"
)

// EventType identifies what happened to a timer.
type EventType string

const (
	// EventUpdate carries a timer whose time left or status changed.
	EventUpdate EventType = "update"
	// EventCompleted is emitted exactly once when a timer runs down.
	EventCompleted EventType = "completed"
	// EventFocus asks views to bring a timer to the front.
	EventFocus EventType = "focus"
)

// Event is delivered to subscribers of an engine.
type Event struct {
	Type  EventType
	Timer models.Timer
}

// Listeners is a set of event subscribers. The zero value is ready to use.
type Listeners struct {
	fns  map[int]func(Event)
	next int
	mu   sync.Mutex
}

// Subscribe registers fn and returns a function that removes it.
func (l *Listeners) Subscribe(fn func(Event)) (cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(Event))
	}

	id := l.next
	l.next++
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		delete(l.fns, id)
	}
}

// Emit calls every subscriber in subscription order.
func (l *Listeners) Emit(events ...Event) {
	l.mu.Lock()

	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}

	l.mu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}
