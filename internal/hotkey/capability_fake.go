package hotkey

import "sync"

// FakeCapability is an in-memory Capability for tests: a process-local
// message queue plus a recording register/unregister implementation. It
// can simulate native rejections, press events, and a stalled pump by
// withholding posted requests.
type FakeCapability struct {
	mu         sync.Mutex
	queue      []Message
	held       []Message
	stalled    bool
	registered map[int32]fakeRegistration
	dispatched []Message

	registerCalls   int
	unregisterCalls int
	failCode        uint32
	lastErr         uint32
}

type fakeRegistration struct {
	Mods     Modifier
	Key      Key
	NoRepeat bool
}

// NewFake returns an empty fake capability.
func NewFake() *FakeCapability {
	return &FakeCapability{registered: make(map[int32]fakeRegistration)}
}

func (f *FakeCapability) RegisterHotkey(id int32, mods Modifier, key Key, noRepeat bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	if f.failCode != 0 {
		f.lastErr = f.failCode
		return false
	}
	f.registered[id] = fakeRegistration{Mods: mods, Key: key, NoRepeat: noRepeat}
	return true
}

func (f *FakeCapability) UnregisterHotkey(id int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregisterCalls++
	delete(f.registered, id)
	return true
}

func (f *FakeCapability) LastError() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *FakeCapability) CurrentThreadID() uint32 { return 1 }

func (f *FakeCapability) PostThreadMessage(tid uint32, m Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stalled && (m.Kind == MsgRegister || m.Kind == MsgUnregister) {
		f.held = append(f.held, m)
		return true
	}
	f.queue = append(f.queue, m)
	return true
}

func (f *FakeCapability) PollMessage() (Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return Message{}, false
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	return m, true
}

func (f *FakeCapability) Dispatch(m Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, m)
}

// SimPress injects a native press notification for a registered id.
func (f *FakeCapability) SimPress(id int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, Message{Kind: MsgHotkey, ID: id})
}

// SimOther injects an unrelated native message, which the pump must pass
// through to Dispatch unchanged.
func (f *FakeCapability) SimOther(native any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, Message{Kind: MsgOther, Native: native})
}

// Stall withholds subsequent register/unregister requests from the pump,
// simulating a pump that never responds.
func (f *FakeCapability) Stall() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stalled = true
}

// Release re-queues everything withheld by Stall, producing the late
// responses a timed-out coordinator must ignore.
func (f *FakeCapability) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stalled = false
	f.queue = append(f.queue, f.held...)
	f.held = nil
}

// FailRegistrations makes every subsequent native register call fail
// with the given OS error code. A zero code restores success.
func (f *FakeCapability) FailRegistrations(code uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCode = code
}

// RegisterCalls reports how many times the native register was invoked.
func (f *FakeCapability) RegisterCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registerCalls
}

// UnregisterCalls reports how many times the native unregister was invoked.
func (f *FakeCapability) UnregisterCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unregisterCalls
}

// LiveRegistrations reports how many ids are natively registered.
func (f *FakeCapability) LiveRegistrations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registered)
}

// Dispatched returns the messages passed through to default dispatch.
func (f *FakeCapability) Dispatched() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.dispatched...)
}
