//go:build windows

package hotkey

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	wmHotkey = 0x0312

	// Private thread messages, in the WM_APP range so they can never
	// collide with system messages.
	wmAppRegister   = 0x8000 + 1
	wmAppUnregister = 0x8000 + 2
	wmAppShutdown   = 0x8000 + 3

	pmRemove    = 0x0001
	modNoRepeat = 0x4000
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procPeekMessage        = user32.NewProc("PeekMessageW")
	procPostThreadMessage  = user32.NewProc("PostThreadMessageW")
	procTranslateMessage   = user32.NewProc("TranslateMessage")
	procDispatchMessage    = user32.NewProc("DispatchMessageW")
	procGetCurrentThreadId = kernel32.NewProc("GetCurrentThreadId")
)

// winMsg mirrors the Win32 MSG structure.
type winMsg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// winCapability implements Capability over the user32 global-hotkey API.
// Registration and the message queue are tied to whichever thread calls
// them, which is why the pump locks itself to one OS thread.
type winCapability struct {
	lastErr atomic.Uint32
}

// NewNativeCapability returns the Win32-backed capability.
func NewNativeCapability() Capability {
	return &winCapability{}
}

func (c *winCapability) RegisterHotkey(id int32, mods Modifier, key Key, noRepeat bool) bool {
	flags := uintptr(mods)
	if noRepeat {
		flags |= modNoRepeat
	}
	ret, _, err := procRegisterHotKey.Call(0, uintptr(id), flags, uintptr(key))
	if ret == 0 {
		c.storeErr(err)
		return false
	}
	return true
}

func (c *winCapability) UnregisterHotkey(id int32) bool {
	ret, _, err := procUnregisterHotKey.Call(0, uintptr(id))
	if ret == 0 {
		c.storeErr(err)
		return false
	}
	return true
}

func (c *winCapability) LastError() uint32 {
	return c.lastErr.Load()
}

func (c *winCapability) CurrentThreadID() uint32 {
	ret, _, _ := procGetCurrentThreadId.Call()
	return uint32(ret)
}

func (c *winCapability) PostThreadMessage(tid uint32, m Message) bool {
	var wm uintptr
	switch m.Kind {
	case MsgRegister:
		wm = wmAppRegister
	case MsgUnregister:
		wm = wmAppUnregister
	case MsgShutdown:
		wm = wmAppShutdown
	default:
		return false
	}
	ret, _, err := procPostThreadMessage.Call(uintptr(tid), wm, uintptr(m.ID), 0)
	if ret == 0 {
		c.storeErr(err)
		return false
	}
	return true
}

func (c *winCapability) PollMessage() (Message, bool) {
	var m winMsg
	ret, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
	if ret == 0 {
		return Message{}, false
	}

	switch m.Message {
	case wmHotkey:
		return Message{Kind: MsgHotkey, ID: int32(m.WParam)}, true
	case wmAppRegister:
		return Message{Kind: MsgRegister, ID: int32(m.WParam)}, true
	case wmAppUnregister:
		return Message{Kind: MsgUnregister, ID: int32(m.WParam)}, true
	case wmAppShutdown:
		return Message{Kind: MsgShutdown}, true
	default:
		return Message{Kind: MsgOther, Native: &m}, true
	}
}

func (c *winCapability) Dispatch(m Message) {
	native, ok := m.Native.(*winMsg)
	if !ok {
		return
	}
	procTranslateMessage.Call(uintptr(unsafe.Pointer(native)))
	procDispatchMessage.Call(uintptr(unsafe.Pointer(native)))
}

func (c *winCapability) storeErr(err error) {
	if errno, ok := err.(windows.Errno); ok {
		c.lastErr.Store(uint32(errno))
		return
	}
	c.lastErr.Store(1)
}
