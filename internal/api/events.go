package api

import (
	"sync"

	"github.com/dgallion1/guidenav/internal/navigator"
)

// eventLog keeps the most recent navigator events for /api/events.
type eventLog struct {
	mu     sync.Mutex
	max    int
	events []navigator.Event
	// load is the most recent outline load or load failure.
	load navigator.Event
}

func newEventLog(max int) *eventLog {
	if max <= 0 {
		max = 100
	}
	return &eventLog{max: max}
}

func (l *eventLog) record(ev navigator.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Kind {
	case navigator.OutlineLoaded, navigator.OutlineLoadFailed:
		l.load = ev
	}
	l.events = append(l.events, ev)
	if over := len(l.events) - l.max; over > 0 {
		l.events = append(l.events[:0], l.events[over:]...)
	}
}

// since returns events recorded after the event with id; all buffered
// events when id is empty or no longer buffered.
func (l *eventLog) since(id string) []navigator.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0
	if id != "" {
		for i, ev := range l.events {
			if ev.ID == id {
				start = i + 1
				break
			}
		}
	}
	out := make([]navigator.Event, len(l.events)-start)
	copy(out, l.events[start:])
	return out
}

// lastLoad returns the kind and reason of the latest outline load.
func (l *eventLog) lastLoad() (navigator.EventKind, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load.Kind, l.load.Reason
}
