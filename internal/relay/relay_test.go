package relay

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"
)

// fakePort is an in-memory serial port: the test feeds firmware bytes
// into the read side and captures everything the relay writes.
type fakePort struct {
	reader *io.PipeReader
	feed   *io.PipeWriter

	mu    sync.Mutex
	wrote bytes.Buffer
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{reader: r, feed: w}
}

func (p *fakePort) Read(b []byte) (int, error) { return p.reader.Read(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wrote.Write(b)
}

func (p *fakePort) Close() error {
	p.feed.Close()
	return p.reader.Close()
}

func (p *fakePort) written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.wrote.Bytes()...)
}

func TestRelayDeliversEvents(t *testing.T) {
	port := newFakePort()
	r := newRelay(port)
	defer r.Close()

	want := Event{Type: EvtKeyboardInput, Data: []byte{'x'}, Timestamp: 99}
	go port.feed.Write(EncodeEvent(want))

	select {
	case got := <-r.Events():
		if got.Type != want.Type || got.Timestamp != want.Timestamp || !bytes.Equal(got.Data, want.Data) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for relay event")
	}
}

func TestRelaySkipsCorruptFrame(t *testing.T) {
	port := newFakePort()
	r := newRelay(port)
	defer r.Close()

	bad := EncodeEvent(Event{Type: EvtMouseClick, Data: []byte{1}, Timestamp: 1})
	bad[len(bad)-1] ^= 0xFF
	good := EncodeEvent(Event{Type: EvtStatusResponse, Timestamp: 2})
	go port.feed.Write(append(bad, good...))

	select {
	case got := <-r.Events():
		if got.Type != EvtStatusResponse {
			t.Errorf("expected the frame after the corrupt one, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("relay never recovered from the corrupt frame")
	}
}

func TestRelayResyncsAfterLengthCorruption(t *testing.T) {
	port := newFakePort()
	r := newRelay(port)
	defer r.Close()

	// A corrupted length byte makes the reader consume into the bytes
	// that follow, so it ends up at an arbitrary stream position. It
	// must scan back to a frame boundary instead of misreading every
	// frame after the bad one.
	bad := EncodeEvent(Event{Type: EvtMouseMove, Data: []byte{1, 2}, Timestamp: 7})
	bad[1] = 9
	filler := bytes.Repeat([]byte{0xAA}, 10)
	good := EncodeEvent(Event{Type: EvtStatusResponse, Timestamp: 42})

	stream := append(append(bad, filler...), good...)
	go port.feed.Write(stream)

	select {
	case got := <-r.Events():
		if got.Type != EvtStatusResponse || got.Timestamp != 42 {
			t.Errorf("expected the realigned frame, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("relay never realigned after the corrupted length byte")
	}
}

func TestRelaySendFrames(t *testing.T) {
	port := newFakePort()
	r := newRelay(port)
	defer r.Close()

	if err := r.SendText("hi"); err != nil {
		t.Fatalf("send text: %v", err)
	}
	if err := r.SendDelay(250); err != nil {
		t.Fatalf("send delay: %v", err)
	}
	// Modifier mask then VK code, the layout the firmware parses.
	if err := r.SendKeyPress(0x06, 0x41); err != nil {
		t.Fatalf("send key press: %v", err)
	}

	wrote := port.written()
	var want []byte
	want = append(want, EncodeCommand(CmdKeyboardText, []byte("hi"))...)
	want = append(want, EncodeCommand(CmdDelay, []byte{250, 0})...)
	want = append(want, EncodeCommand(CmdKeyPress, []byte{0x06, 0x41})...)
	if !bytes.Equal(wrote, want) {
		t.Errorf("wrote % X, want % X", wrote, want)
	}
}

func TestRelayCloseEndsEventStream(t *testing.T) {
	port := newFakePort()
	r := newRelay(port)

	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}

	select {
	case _, ok := <-r.Events():
		if ok {
			t.Error("expected closed event channel")
		}
	case <-time.After(time.Second):
		t.Fatal("event channel never closed")
	}
}
