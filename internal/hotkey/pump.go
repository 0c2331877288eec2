package hotkey

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// pumpState tracks the lifecycle of the pump thread.
type pumpState int32

const (
	pumpCreated pumpState = iota
	pumpStarting
	pumpRunning
	pumpStopping
	pumpStopped
)

// pump owns all interaction with the native capability. Registration,
// unregistration and message dispatch execute exclusively on its
// goroutine, which is locked to one OS thread because the native hotkey
// facility ties registrations and their notifications to the thread that
// made them.
type pump struct {
	capability Capability
	reg        *registry
	disp       *dispatcher
	poll       time.Duration

	state atomic.Int32
	tid   atomic.Uint32
	done  chan struct{}
}

func newPump(capability Capability, reg *registry, disp *dispatcher, poll time.Duration) *pump {
	p := &pump{
		capability: capability,
		reg:        reg,
		disp:       disp,
		poll:       poll,
		done:       make(chan struct{}),
	}
	p.state.Store(int32(pumpCreated))
	return p
}

func (p *pump) start() {
	p.state.Store(int32(pumpStarting))
	go p.run()
}

func (p *pump) running() bool {
	return pumpState(p.state.Load()) == pumpRunning
}

// threadID is the address other threads post messages to. Zero until the
// pump has published its identity.
func (p *pump) threadID() uint32 {
	return p.tid.Load()
}

func (p *pump) run() {
	// The OS delivers hotkey notifications to the registering thread, so
	// this goroutine must stay on one thread for its whole life.
	runtime.LockOSThread()

	p.tid.Store(p.capability.CurrentThreadID())
	p.state.Store(int32(pumpRunning))
	log.Debug().Uint32("thread", p.tid.Load()).Msg("hotkey pump running")

	defer func() {
		p.state.Store(int32(pumpStopped))
		close(p.done)
	}()

	for {
		m, ok := p.capability.PollMessage()
		if !ok {
			time.Sleep(p.poll)
			continue
		}

		switch m.Kind {
		case MsgShutdown:
			p.state.Store(int32(pumpStopping))
			p.releaseAll()
			log.Debug().Msg("hotkey pump stopping")
			return
		case MsgRegister:
			p.handleRegister(m.ID)
		case MsgUnregister:
			p.handleUnregister(m.ID)
		case MsgHotkey:
			p.handlePress(m.ID)
		default:
			// The pump is also the general message sink for its thread;
			// anything it does not understand goes to default dispatch.
			p.safeDispatch(m)
		}
	}
}

func (p *pump) handleRegister(req int32) {
	pr, ok := p.reg.peekPending(req, opRegister)
	if !ok {
		log.Debug().Int32("req", req).Msg("registration request with no pending entry, dropping")
		return
	}

	registered := p.safeRegister(pr.hk, pr.def)
	res := result{ok: registered}
	if !registered {
		res.code = p.capability.LastError()
	}

	if !p.reg.completeRegister(req, res) {
		// The coordinator timed out and rolled back while the native call
		// was in flight. Drop the result; if the OS accepted the
		// registration, release it so nothing unowned stays live.
		if registered {
			p.capability.UnregisterHotkey(pr.hk)
		}
		log.Warn().Int32("req", req).Stringer("hotkey", pr.def).
			Msg("late registration result dropped after rollback")
	}
}

func (p *pump) handleUnregister(req int32) {
	pr, ok := p.reg.peekPending(req, opUnregister)
	if !ok {
		log.Debug().Int32("req", req).Msg("unregistration request with no pending entry, dropping")
		return
	}

	if _, live := p.reg.get(pr.hk); !live {
		// An earlier request already released this hotkey; unregistering
		// twice is still a success. Only the pump mutates the live maps,
		// so this check cannot race the native call below.
		p.reg.completeUnregister(req, result{ok: true})
		return
	}

	unregistered := p.safeUnregister(pr.hk)
	res := result{ok: unregistered}
	if !unregistered {
		res.code = p.capability.LastError()
	}

	if !p.reg.completeUnregister(req, res) {
		log.Warn().Int32("req", req).Stringer("hotkey", pr.def).
			Msg("late unregistration result dropped after rollback")
	}
}

func (p *pump) handlePress(id int32) {
	def, ok := p.reg.get(id)
	if !ok {
		log.Debug().Int32("id", id).Msg("press notification for unknown hotkey id, dropping")
		return
	}
	p.disp.deliver(Event{Definition: def, At: time.Now()})
}

// safeRegister shields the pump loop from a panicking capability; a
// single bad native call must not terminate pumping.
func (p *pump) safeRegister(id int32, def Definition) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Stringer("hotkey", def).Msg("recovered in native register")
			ok = false
		}
	}()
	return p.capability.RegisterHotkey(id, def.Mods, def.Key, def.Trigger == TriggerOnce)
}

func (p *pump) safeUnregister(id int32) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int32("id", id).Msg("recovered in native unregister")
			ok = false
		}
	}()
	return p.capability.UnregisterHotkey(id)
}

func (p *pump) safeDispatch(m Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered in native dispatch")
		}
	}()
	p.capability.Dispatch(m)
}

// releaseAll natively unregisters everything still live. Runs on the
// pump thread during shutdown.
func (p *pump) releaseAll() {
	for _, id := range p.reg.clearLive() {
		if !p.capability.UnregisterHotkey(id) {
			log.Warn().Int32("id", id).Uint32("code", p.capability.LastError()).
				Msg("failed to release hotkey during shutdown")
		}
	}
}

// stop signals the pump through its own message channel and joins it
// with a bounded timeout. A pump that fails to stop is logged and
// abandoned rather than hanging the caller.
func (p *pump) stop(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	// The thread identity may not be published yet if stop races startup.
	for p.threadID() == 0 && time.Now().Before(deadline) {
		time.Sleep(p.poll)
	}

	if !p.capability.PostThreadMessage(p.threadID(), Message{Kind: MsgShutdown}) {
		log.Warn().Msg("failed to post shutdown to hotkey pump")
	}

	select {
	case <-p.done:
		return true
	case <-time.After(time.Until(deadline)):
		log.Warn().Msg("hotkey pump did not stop within timeout")
		return false
	}
}
