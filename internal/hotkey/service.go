package hotkey

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Options bound every wait the service performs. Zero values fall back
// to the defaults; tests shrink them to keep failure cases fast.
type Options struct {
	// StartupTimeout bounds how long callers wait for the pump to come up.
	StartupTimeout time.Duration
	// RequestTimeout bounds the wait for a posted request's outcome.
	RequestTimeout time.Duration
	// StopTimeout bounds the pump join during Close.
	StopTimeout time.Duration
	// PollInterval is the sleep between polls, both in the pump's idle
	// loop and in the coordinator's wait loops.
	PollInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.StartupTimeout <= 0 {
		o.StartupTimeout = 3 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 3 * time.Second
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 3 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Millisecond
	}
	return o
}

// Service is the registration coordinator: the asynchronous public
// surface over the thread-affine native hotkey facility. Callers may use
// it from any goroutine; all native work is relayed to the pump thread
// and awaited with bounded polling.
type Service struct {
	capability Capability
	opts       Options
	reg        *registry
	disp       *dispatcher
	pump       *pump

	// mu orders each registry claim with its post, so the pump receives
	// requests in the order they were claimed. The claim itself is a
	// single registry critical section; mu is never held across a
	// blocking wait.
	mu     sync.Mutex
	closed atomic.Bool
}

// New starts the pump thread and returns the coordinator. The capability
// is injectable so tests run against a fake instead of the OS.
func New(capability Capability, opts Options) *Service {
	s := &Service{
		capability: capability,
		opts:       opts.withDefaults(),
		reg:        newRegistry(),
		disp:       newDispatcher(),
	}
	s.pump = newPump(capability, s.reg, s.disp, s.opts.PollInterval)
	s.pump.start()
	return s
}

// NewNative is the production constructor, wiring the platform's real
// hotkey facility.
func NewNative(opts Options) *Service {
	return New(NewNativeCapability(), opts)
}

// Ready reports whether the pump thread is alive and past startup.
func (s *Service) Ready() bool {
	return !s.closed.Load() && s.pump.running()
}

// Subscribe adds a press handler and returns its cancel function.
// Handlers run off the pump thread.
func (s *Service) Subscribe(h Handler) func() {
	return s.disp.subscribe(h)
}

// Register makes def a live global hotkey. Registering an identical
// definition again is a successful no-op. A different definition on the
// same (modifiers, key) combination fails with a ConflictError before
// the native layer is ever contacted.
func (s *Service) Register(def Definition) error {
	if s.closed.Load() {
		return ErrDisposed
	}
	if !def.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, def)
	}
	if err := s.waitReady(); err != nil {
		return err
	}

	s.mu.Lock()
	req, hk, existing, outcome := s.reg.claimRegister(def)
	switch outcome {
	case claimIdentical:
		s.mu.Unlock()
		log.Debug().Stringer("hotkey", def).Msg("hotkey already registered, no-op")
		return nil
	case claimConflict:
		s.mu.Unlock()
		return &ConflictError{Existing: existing}
	case claimPending:
		s.mu.Unlock()
		// Same definition already in flight from another caller; wait for
		// that registration instead of raising a false conflict.
		return s.awaitExisting(def)
	}

	posted := s.capability.PostThreadMessage(s.pump.threadID(), Message{Kind: MsgRegister, ID: req})
	s.mu.Unlock()

	if !posted {
		s.reg.cancel(req)
		return &NativeError{Op: "post", Code: s.capability.LastError()}
	}

	if err := s.await(req, "register"); err != nil {
		return err
	}
	log.Info().Stringer("hotkey", def).Int32("id", hk).Msg("hotkey registered")
	return nil
}

// Unregister removes a live registration. Unregistering a combination
// that is not registered is a no-op with a warning, not an error.
func (s *Service) Unregister(def Definition) error {
	if s.closed.Load() {
		return ErrDisposed
	}
	if err := s.waitReady(); err != nil {
		return err
	}

	s.mu.Lock()
	req, existing, ok := s.reg.claimUnregister(def.Identity())
	if !ok {
		s.mu.Unlock()
		log.Warn().Stringer("hotkey", def).Msg("unregister of a hotkey that is not registered, no-op")
		return nil
	}

	posted := s.capability.PostThreadMessage(s.pump.threadID(), Message{Kind: MsgUnregister, ID: req})
	s.mu.Unlock()

	if !posted {
		s.reg.cancel(req)
		return &NativeError{Op: "post", Code: s.capability.LastError()}
	}

	if err := s.await(req, "unregister"); err != nil {
		return err
	}
	log.Info().Stringer("hotkey", existing).Msg("hotkey unregistered")
	return nil
}

// UnregisterAll removes every live registration, collecting individual
// failures instead of stopping at the first.
func (s *Service) UnregisterAll() error {
	if s.closed.Load() {
		return ErrDisposed
	}

	var errs []error
	for _, def := range s.Registered() {
		if err := s.Unregister(def); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", def, err))
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Registered snapshots the currently live definitions.
func (s *Service) Registered() []Definition {
	if s.closed.Load() {
		return nil
	}
	return s.reg.definitions()
}

// IsRegistered reports whether the combination of def is currently live.
func (s *Service) IsRegistered(def Definition) bool {
	if s.closed.Load() {
		return false
	}
	_, _, ok := s.reg.lookup(def.Identity())
	return ok
}

// Close tears the service down: live registrations are released on the
// pump thread and the pump is joined with a bounded timeout. Close is
// idempotent; every call after the first returns ErrDisposed, as does
// every other operation.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrDisposed
	}
	s.pump.stop(s.opts.StopTimeout)
	return nil
}

// waitReady blocks (politely, with short sleeps) until the pump is
// running, bounded by the startup timeout.
func (s *Service) waitReady() error {
	deadline := time.Now().Add(s.opts.StartupTimeout)
	for !s.pump.running() {
		if s.closed.Load() {
			return ErrDisposed
		}
		if time.Now().After(deadline) {
			return ErrNotReady
		}
		time.Sleep(s.opts.PollInterval)
	}
	return nil
}

// await polls for the pump's published outcome of request req, bounded
// by the request timeout. On timeout the pending entry is rolled back so
// a late native result cannot leave the registry inconsistent.
func (s *Service) await(req int32, op string) error {
	deadline := time.Now().Add(s.opts.RequestTimeout)
	for {
		if res, ok := s.reg.takeResult(req); ok {
			return resultErr(res, op)
		}
		if s.closed.Load() {
			s.reg.cancel(req)
			return ErrDisposed
		}
		if time.Now().After(deadline) {
			// One last atomic look: the result may have landed exactly at
			// the wire, in which case it still counts.
			if res, ok := s.reg.cancel(req); ok {
				return resultErr(res, op)
			}
			log.Warn().Int32("req", req).Str("op", op).Msg("hotkey request timed out, rolling back")
			return ErrTimeout
		}
		time.Sleep(s.opts.PollInterval)
	}
}

// awaitExisting waits for another caller's in-flight registration of the
// same definition to land, so a same-definition race yields one live
// registration and no-op successes for everyone else.
func (s *Service) awaitExisting(def Definition) error {
	deadline := time.Now().Add(s.opts.RequestTimeout)
	for {
		if _, existing, ok := s.reg.lookup(def.Identity()); ok {
			if existing == def {
				return nil
			}
			return &ConflictError{Existing: existing}
		}
		if _, ok := s.reg.lookupPending(def.Identity()); !ok {
			// The pending entry vanished between the two checks; it may
			// have just landed as a live registration.
			if _, existing, ok := s.reg.lookup(def.Identity()); ok {
				if existing == def {
					return nil
				}
				return &ConflictError{Existing: existing}
			}
			// The originating request failed or rolled back; this caller
			// only knows its own wait came up empty.
			return ErrTimeout
		}
		if s.closed.Load() {
			return ErrDisposed
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(s.opts.PollInterval)
	}
}

func resultErr(res result, op string) error {
	if res.ok {
		return nil
	}
	return &NativeError{Op: op, Code: res.code}
}
