// Package script keeps the configured macro scripts in sync with the
// hotkey service and runs a script's steps when its hotkey fires.
package script

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"

	"github.com/macroloom/macroloom/internal/config"
	"github.com/macroloom/macroloom/internal/hotkey"
)

// HotkeyService is the slice of the coordinator the manager consumes.
type HotkeyService interface {
	Register(hotkey.Definition) error
	Unregister(hotkey.Definition) error
	Registered() []hotkey.Definition
	Subscribe(hotkey.Handler) func()
}

// InputRelay is the Arduino relay boundary used by text and key steps.
// It is nil when no relay is configured.
type InputRelay interface {
	Send(cmd byte, data []byte) error
	SendText(text string) error
	SendDelay(ms uint16) error
	SendKeyPress(mods, key byte) error
}

// Manager owns the script <-> hotkey mapping. It registers hotkeys for
// enabled scripts, cleans up orphaned registrations, and executes steps
// on press events unless the UI's capture mode is active.
type Manager struct {
	cfg     *config.Config
	hotkeys HotkeyService
	relay   InputRelay

	// captureMode is owned by the UI; while it reports true the user is
	// picking a new hotkey and press dispatch is suppressed here.
	captureMode func() bool

	// Injection points for tests.
	writeClipboard func(string) error
	secrets        func() map[string]string
	sleep          func(ms int)

	mu          sync.RWMutex
	byIdentity  map[hotkey.Identity]config.ScriptConfig
	unsubscribe func()
}

// NewManager wires the manager and subscribes it to press events.
// Call SyncHotkeys afterwards to reconcile registrations.
func NewManager(cfg *config.Config, hotkeys HotkeyService, relay InputRelay, captureMode func() bool) *Manager {
	m := &Manager{
		cfg:            cfg,
		hotkeys:        hotkeys,
		relay:          relay,
		captureMode:    captureMode,
		writeClipboard: clipboard.WriteAll,
		secrets:        cfg.GetResolvedSecrets,
		sleep:          sleepMs,
		byIdentity:     make(map[hotkey.Identity]config.ScriptConfig),
	}
	m.unsubscribe = hotkeys.Subscribe(m.onPress)
	return m
}

// SetClipboardWriter replaces the default clipboard write used by
// clipboard steps, so writes can go through the revert-capable manager.
func (m *Manager) SetClipboardWriter(write func(string) error) {
	if write != nil {
		m.writeClipboard = write
	}
}

// Close detaches the manager from the hotkey service.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// DefinitionFor resolves a script's hotkey string and trigger mode into
// a Definition.
func DefinitionFor(sc config.ScriptConfig) (hotkey.Definition, error) {
	def, err := hotkey.Parse(sc.Hotkey)
	if err != nil {
		return hotkey.Definition{}, fmt.Errorf("script %q: %w", sc.Name, err)
	}
	trigger, err := hotkey.ParseTriggerMode(sc.Trigger)
	if err != nil {
		return hotkey.Definition{}, fmt.Errorf("script %q: %w", sc.Name, err)
	}
	def.Trigger = trigger
	return def, nil
}

// SyncHotkeys reconciles the live registrations against the configured
// scripts: enabled scripts get registered, registrations with no owning
// script are orphans and get unregistered. Individual failures are
// collected so one broken script cannot block the rest. Run at startup
// and after every config change.
func (m *Manager) SyncHotkeys() error {
	var errs []error
	desired := make(map[hotkey.Identity]config.ScriptConfig)

	for _, sc := range m.cfg.Scripts {
		if !sc.Enabled {
			continue
		}
		def, err := DefinitionFor(sc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if owner, taken := desired[def.Identity()]; taken {
			errs = append(errs, fmt.Errorf("script %q: hotkey %s already used by script %q", sc.Name, def, owner.Name))
			continue
		}
		if err := m.hotkeys.Register(def); err != nil {
			errs = append(errs, fmt.Errorf("script %q: registering %s: %w", sc.Name, def, err))
			continue
		}
		desired[def.Identity()] = sc
	}

	// Orphan cleanup: anything registered that no enabled script owns.
	for _, def := range m.hotkeys.Registered() {
		if _, ok := desired[def.Identity()]; ok {
			continue
		}
		log.Info().Stringer("hotkey", def).Msg("unregistering orphaned hotkey")
		if err := m.hotkeys.Unregister(def); err != nil {
			errs = append(errs, fmt.Errorf("orphan %s: %w", def, err))
		}
	}

	m.mu.Lock()
	m.byIdentity = desired
	m.mu.Unlock()

	return errors.Join(errs...)
}

// ScriptFor looks up the script owning a definition, if any.
func (m *Manager) ScriptFor(def hotkey.Definition) (config.ScriptConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.byIdentity[def.Identity()]
	return sc, ok
}

func (m *Manager) onPress(ev hotkey.Event) {
	if m.captureMode != nil && m.captureMode() {
		log.Debug().Stringer("hotkey", ev.Definition).Msg("press suppressed, capture mode active")
		return
	}

	sc, ok := m.ScriptFor(ev.Definition)
	if !ok {
		log.Warn().Stringer("hotkey", ev.Definition).Msg("press for hotkey with no script")
		return
	}

	log.Info().Str("script", sc.Name).Stringer("hotkey", ev.Definition).Msg("running script")
	if err := m.Run(sc); err != nil {
		log.Error().Err(err).Str("script", sc.Name).Msg("script failed")
	}
}
