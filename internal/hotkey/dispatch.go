package hotkey

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Event is delivered to subscribers when a registered hotkey fires.
type Event struct {
	Definition Definition
	At         time.Time
}

// Handler receives press events. Handlers run off the pump thread and
// may block or panic without affecting pumping or other subscribers.
type Handler func(Event)

// dispatcher fans press events out to subscribers. Each delivery happens
// on its own goroutine with panic recovery, so one slow or failing
// subscriber cannot stall the pump or starve the others.
type dispatcher struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{subs: make(map[int]Handler)}
}

// subscribe adds h and returns a function that removes it again.
func (d *dispatcher) subscribe(h Handler) func() {
	d.mu.Lock()
	id := d.next
	d.next++
	d.subs[id] = h
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// deliver hands ev to every current subscriber asynchronously.
func (d *dispatcher) deliver(ev Event) {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.subs))
	for _, h := range d.subs {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		h := h
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).
						Stringer("hotkey", ev.Definition).
						Msg("hotkey subscriber panicked")
				}
			}()
			h(ev)
		}()
	}
}
