package hotkey

import (
	"testing"
	"time"
)

func TestDispatcherIsolatesPanickingSubscriber(t *testing.T) {
	d := newDispatcher()

	received := make(chan Event, 1)
	d.subscribe(func(Event) { panic("boom") })
	d.subscribe(func(ev Event) { received <- ev })

	ev := Event{Definition: Definition{Mods: ModCtrl, Key: KeyA}, At: time.Now()}
	d.deliver(ev)

	select {
	case got := <-received:
		if got != ev {
			t.Errorf("got %+v, want %+v", got, ev)
		}
	case <-time.After(time.Second):
		t.Fatal("healthy subscriber never received the event")
	}
}

func TestDispatcherDoesNotBlockOnSlowSubscriber(t *testing.T) {
	d := newDispatcher()

	blocked := make(chan struct{})
	d.subscribe(func(Event) { <-blocked })
	defer close(blocked)

	done := make(chan struct{})
	go func() {
		d.deliver(Event{At: time.Now()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deliver blocked on a slow subscriber")
	}
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := newDispatcher()

	received := make(chan Event, 1)
	cancel := d.subscribe(func(ev Event) { received <- ev })
	cancel()

	d.deliver(Event{At: time.Now()})

	select {
	case ev := <-received:
		t.Fatalf("unsubscribed handler received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
