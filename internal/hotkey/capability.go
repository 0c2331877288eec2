package hotkey

// MessageKind classifies the messages the pump drains from its queue.
type MessageKind int

const (
	// MsgRegister asks the pump to perform a native registration for the
	// pending request identified by Message.ID.
	MsgRegister MessageKind = iota + 1
	// MsgUnregister asks the pump to perform the native unregistration
	// for the pending request identified by Message.ID.
	MsgUnregister
	// MsgShutdown terminates the pump loop.
	MsgShutdown
	// MsgHotkey is a press notification from the native layer; Message.ID
	// is the hotkey id assigned at registration.
	MsgHotkey
	// MsgOther is any native message the pump does not care about. It is
	// handed back to Capability.Dispatch so platform behavior is not
	// disrupted.
	MsgOther
)

// Message travels through the pump's queue. For MsgRegister and
// MsgUnregister, ID is the request id of the pending entry; for
// MsgHotkey it is the hotkey id. Native holds the raw platform message
// for MsgOther pass-through; it is opaque to everything except the
// Capability that produced it.
type Message struct {
	Kind   MessageKind
	ID     int32
	Native any
}

// Capability is the thin abstraction over the native global-hotkey
// facility. The pump goroutine is the only caller of RegisterHotkey,
// UnregisterHotkey, PollMessage and Dispatch; every other method is safe
// from any goroutine. Injecting a fake Capability makes the coordinator
// testable without a real OS message queue.
type Capability interface {
	// RegisterHotkey performs the native registration of id for the given
	// combination. noRepeat asks the OS to suppress auto-repeat while the
	// combination stays held. Reports success; on failure LastError holds
	// the OS code.
	RegisterHotkey(id int32, mods Modifier, key Key, noRepeat bool) bool

	// UnregisterHotkey removes a previous native registration.
	UnregisterHotkey(id int32) bool

	// LastError returns the OS error code of the most recent failed call.
	LastError() uint32

	// CurrentThreadID identifies the calling thread so other threads can
	// address messages to it.
	CurrentThreadID() uint32

	// PostThreadMessage enqueues m for the thread identified by tid.
	PostThreadMessage(tid uint32, m Message) bool

	// PollMessage removes and returns the next pending message without
	// blocking. ok is false when the queue is empty.
	PollMessage() (m Message, ok bool)

	// Dispatch passes an unrecognized native message through to default
	// platform handling.
	Dispatch(m Message)
}
