//go:build !windows

package hotkey

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	xhotkey "golang.design/x/hotkey"
)

// Error codes reported by LastError on non-Windows platforms, where the
// underlying library gives us no numeric OS code to preserve.
const (
	nativeErrUnsupported = 1
	nativeErrRegister    = 2
	nativeErrUnregister  = 3
)

// xCapability adapts golang.design/x/hotkey to the Capability interface.
// The library manages its own platform event loop internally, so thread
// affinity is trivially satisfied here: registration calls and press
// events all flow through one process-local queue that the pump drains
// exactly like the Win32 message queue.
type xCapability struct {
	mu      sync.Mutex
	queue   []Message
	grabs   map[int32]*xGrab
	lastErr atomic.Uint32
}

// xGrab holds the library handles backing one hotkey id. On X11 a single
// combination is registered once per lock-modifier variant, so a grab may
// own several handles.
type xGrab struct {
	hks  []*xhotkey.Hotkey
	stop chan struct{}
}

// NewNativeCapability returns the golang.design/x/hotkey-backed
// capability used on macOS and X11. Wayland is not supported by the
// library; see DetectDisplayServer.
func NewNativeCapability() Capability {
	return &xCapability{grabs: make(map[int32]*xGrab)}
}

func (c *xCapability) RegisterHotkey(id int32, mods Modifier, key Key, noRepeat bool) bool {
	combos, xkey, err := nativeCombos(mods, key)
	if err != nil {
		log.Warn().Err(err).Msg("hotkey combination not supported on this platform")
		c.lastErr.Store(nativeErrUnsupported)
		return false
	}

	grab := &xGrab{stop: make(chan struct{})}
	for _, combo := range combos {
		hk := xhotkey.New(combo, xkey)
		if err := hk.Register(); err != nil {
			log.Warn().Err(err).Int32("id", id).Msg("native hotkey registration failed")
			for _, prev := range grab.hks {
				prev.Unregister()
			}
			c.lastErr.Store(nativeErrRegister)
			return false
		}
		grab.hks = append(grab.hks, hk)
		go c.forwardPresses(id, hk, grab.stop)
	}

	c.mu.Lock()
	c.grabs[id] = grab
	c.mu.Unlock()
	return true
}

// forwardPresses converts the library's keydown channel into queue
// messages, so presses reach the pump the same way they do on Windows.
func (c *xCapability) forwardPresses(id int32, hk *xhotkey.Hotkey, stop chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int32("id", id).Msg("recovered in hotkey press forwarder")
		}
	}()
	for {
		select {
		case <-stop:
			return
		case <-hk.Keydown():
			c.post(Message{Kind: MsgHotkey, ID: id})
		}
	}
}

func (c *xCapability) UnregisterHotkey(id int32) bool {
	c.mu.Lock()
	grab, ok := c.grabs[id]
	delete(c.grabs, id)
	c.mu.Unlock()
	if !ok {
		c.lastErr.Store(nativeErrUnregister)
		return false
	}

	close(grab.stop)
	for _, hk := range grab.hks {
		if err := hk.Unregister(); err != nil {
			log.Warn().Err(err).Int32("id", id).Msg("native hotkey unregistration failed")
		}
	}
	return true
}

func (c *xCapability) LastError() uint32 {
	return c.lastErr.Load()
}

// CurrentThreadID is nominal here: the queue is process-local and has a
// single consumer, so any stable value works as the pump address.
func (c *xCapability) CurrentThreadID() uint32 {
	return 1
}

func (c *xCapability) PostThreadMessage(tid uint32, m Message) bool {
	c.post(m)
	return true
}

func (c *xCapability) PollMessage() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Message{}, false
	}
	m := c.queue[0]
	c.queue = c.queue[1:]
	return m, true
}

// Dispatch is a no-op: the library owns its platform event loop, so there
// are no foreign native messages to pass through.
func (c *xCapability) Dispatch(Message) {}

func (c *xCapability) post(m Message) {
	c.mu.Lock()
	c.queue = append(c.queue, m)
	c.mu.Unlock()
}
