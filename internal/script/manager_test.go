package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/macroloom/macroloom/internal/config"
	"github.com/macroloom/macroloom/internal/hotkey"
	"github.com/macroloom/macroloom/internal/relay"
)

// fakeService records registrations and lets tests fire press events.
type fakeService struct {
	mu         sync.Mutex
	registered map[hotkey.Identity]hotkey.Definition
	handler    hotkey.Handler
	failWith   error
}

func newFakeService() *fakeService {
	return &fakeService{registered: make(map[hotkey.Identity]hotkey.Definition)}
}

func (f *fakeService) Register(def hotkey.Definition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.registered[def.Identity()] = def
	return nil
}

func (f *fakeService) Unregister(def hotkey.Definition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registered, def.Identity())
	return nil
}

func (f *fakeService) Registered() []hotkey.Definition {
	f.mu.Lock()
	defer f.mu.Unlock()
	defs := make([]hotkey.Definition, 0, len(f.registered))
	for _, def := range f.registered {
		defs = append(defs, def)
	}
	return defs
}

func (f *fakeService) Subscribe(h hotkey.Handler) func() {
	f.handler = h
	return func() { f.handler = nil }
}

func (f *fakeService) press(def hotkey.Definition) {
	if f.handler != nil {
		f.handler(hotkey.Event{Definition: def})
	}
}

// fakeRelay records every frame handed to it.
type frame struct {
	cmd  byte
	data []byte
}

type fakeRelay struct {
	mu     sync.Mutex
	frames []frame
}

func (f *fakeRelay) Send(cmd byte, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame{cmd, append([]byte(nil), data...)})
	return nil
}

func (f *fakeRelay) SendText(text string) error { return f.Send(relay.CmdKeyboardText, []byte(text)) }
func (f *fakeRelay) SendDelay(ms uint16) error  { return f.Send(relay.CmdDelay, []byte{byte(ms), byte(ms >> 8)}) }
func (f *fakeRelay) SendKeyPress(mods, key byte) error {
	return f.Send(relay.CmdKeyPress, []byte{mods, key})
}

func (f *fakeRelay) sent() []frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]frame(nil), f.frames...)
}

func testConfig(t *testing.T, scripts ...config.ScriptConfig) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Scripts = scripts
	return cfg
}

func enabledScript(name, combo string, steps ...config.Step) config.ScriptConfig {
	return config.ScriptConfig{Name: name, Enabled: true, Hotkey: combo, Steps: steps}
}

func TestSyncHotkeysRegistersEnabledOnly(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t,
		enabledScript("one", "ctrl+alt+f1"),
		config.ScriptConfig{Name: "off", Enabled: false, Hotkey: "ctrl+alt+f2"},
	)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	if err := m.SyncHotkeys(); err != nil {
		t.Fatalf("SyncHotkeys: %v", err)
	}
	if got := len(svc.Registered()); got != 1 {
		t.Fatalf("registered %d hotkeys, want 1", got)
	}
}

func TestSyncHotkeysUnregistersOrphans(t *testing.T) {
	svc := newFakeService()
	orphan, _ := hotkey.Parse("ctrl+shift+f9")
	if err := svc.Register(orphan); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t, enabledScript("one", "ctrl+alt+f1"))
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	if err := m.SyncHotkeys(); err != nil {
		t.Fatalf("SyncHotkeys: %v", err)
	}

	for _, def := range svc.Registered() {
		if def.Identity() == orphan.Identity() {
			t.Fatal("orphaned registration survived sync")
		}
	}
}

func TestSyncHotkeysCollectsBadScripts(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t,
		enabledScript("broken", "not a hotkey"),
		enabledScript("good", "ctrl+alt+f1"),
	)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	err := m.SyncHotkeys()
	if err == nil {
		t.Fatal("expected an error for the broken script")
	}
	if got := len(svc.Registered()); got != 1 {
		t.Fatalf("good script should still register, got %d registrations", got)
	}
}

func TestSyncHotkeysRejectsDuplicateCombos(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t,
		enabledScript("first", "ctrl+alt+f1"),
		enabledScript("second", "ctrl+alt+f1"),
	)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	if err := m.SyncHotkeys(); err == nil {
		t.Fatal("expected a duplicate-hotkey error")
	}
	if got := len(svc.Registered()); got != 1 {
		t.Fatalf("got %d registrations, want 1", got)
	}
}

func TestPressRunsScript(t *testing.T) {
	svc := newFakeService()
	rl := &fakeRelay{}
	cfg := testConfig(t, enabledScript("hello", "ctrl+alt+f1",
		config.Step{Action: "text", Text: "Hello"},
	))
	m := NewManager(cfg, svc, rl, nil)
	defer m.Close()

	if err := m.SyncHotkeys(); err != nil {
		t.Fatal(err)
	}
	def, _ := hotkey.Parse("ctrl+alt+f1")
	svc.press(def)

	frames := rl.sent()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if frames[0].cmd != relay.CmdKeyboardText || string(frames[0].data) != "Hello" {
		t.Fatalf("got frame %#v", frames[0])
	}
}

func TestPressSuppressedInCaptureMode(t *testing.T) {
	svc := newFakeService()
	rl := &fakeRelay{}
	capturing := true
	cfg := testConfig(t, enabledScript("hello", "ctrl+alt+f1",
		config.Step{Action: "text", Text: "Hello"},
	))
	m := NewManager(cfg, svc, rl, func() bool { return capturing })
	defer m.Close()

	if err := m.SyncHotkeys(); err != nil {
		t.Fatal(err)
	}
	def, _ := hotkey.Parse("ctrl+alt+f1")
	svc.press(def)
	if len(rl.sent()) != 0 {
		t.Fatal("script ran while capture mode was active")
	}

	capturing = false
	svc.press(def)
	if len(rl.sent()) != 1 {
		t.Fatal("script did not run after capture mode ended")
	}
}

func TestRunKeyStepEncodesModifiersAndKey(t *testing.T) {
	svc := newFakeService()
	rl := &fakeRelay{}
	cfg := testConfig(t)
	m := NewManager(cfg, svc, rl, nil)
	defer m.Close()

	sc := enabledScript("key", "ctrl+alt+f1", config.Step{Action: "key", Key: "ctrl+shift+a"})
	if err := m.Run(sc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	frames := rl.sent()
	if len(frames) != 1 || frames[0].cmd != relay.CmdKeyPress {
		t.Fatalf("got frames %#v", frames)
	}
	want := []byte{byte(hotkey.ModCtrl | hotkey.ModShift), byte(hotkey.KeyA)}
	if frames[0].data[0] != want[0] || frames[0].data[1] != want[1] {
		t.Fatalf("got payload %v, want %v", frames[0].data, want)
	}
}

func TestRunClipboardStepResolvesSecrets(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	var written string
	m.writeClipboard = func(s string) error { written = s; return nil }
	m.secrets = func() map[string]string { return map[string]string{"api_key": "s3cret"} }

	sc := enabledScript("clip", "ctrl+alt+f1",
		config.Step{Action: "clipboard", Text: "token={{secret:api_key}}"},
	)
	if err := m.Run(sc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != "token=s3cret" {
		t.Fatalf("clipboard got %q", written)
	}
}

func TestRunFailsOnMissingSecret(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()
	m.writeClipboard = func(string) error { return nil }

	sc := enabledScript("clip", "ctrl+alt+f1",
		config.Step{Action: "clipboard", Text: "{{secret:nope}}"},
	)
	if err := m.Run(sc); err == nil {
		t.Fatal("expected a missing-secret error")
	}
}

func TestRunTextStepWithoutRelayFails(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	sc := enabledScript("txt", "ctrl+alt+f1", config.Step{Action: "text", Text: "hi"})
	if err := m.Run(sc); err == nil {
		t.Fatal("expected an error without a relay")
	}
}

func TestRunRelayStepDecodesHex(t *testing.T) {
	svc := newFakeService()
	rl := &fakeRelay{}
	cfg := testConfig(t)
	m := NewManager(cfg, svc, rl, nil)
	defer m.Close()

	sc := enabledScript("raw", "ctrl+alt+f1",
		config.Step{Action: "relay", Command: int(relay.CmdMouseMoveRel), Data: "0a00f6ff"},
	)
	if err := m.Run(sc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	frames := rl.sent()
	if len(frames) != 1 || frames[0].cmd != relay.CmdMouseMoveRel {
		t.Fatalf("got frames %#v", frames)
	}
	if fmt.Sprintf("%x", frames[0].data) != "0a00f6ff" {
		t.Fatalf("got payload %x", frames[0].data)
	}
}

func TestRunUnknownActionFails(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	sc := enabledScript("bad", "ctrl+alt+f1", config.Step{Action: "teleport"})
	if err := m.Run(sc); err == nil {
		t.Fatal("expected an unknown-action error")
	}
}

func TestRunDelayStepUsesSleep(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	var slept int
	m.sleep = func(ms int) { slept += ms }

	sc := enabledScript("wait", "ctrl+alt+f1",
		config.Step{Action: "delay", Ms: 50},
		config.Step{Action: "delay", Ms: 25},
	)
	if err := m.Run(sc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if slept != 75 {
		t.Fatalf("slept %dms, want 75", slept)
	}
}

func TestExportAndPreviewImport(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t, enabledScript("one", "ctrl+alt+f1"))
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	path := filepath.Join(t.TempDir(), "scripts.json")
	if err := m.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}

	// Identical file: preview shows no changes.
	preview, err := m.PreviewImport(path)
	if err != nil {
		t.Fatalf("PreviewImport: %v", err)
	}
	if preview.Summary.Changed() {
		t.Fatalf("unexpected changes: %v", preview.Summary)
	}

	// A new script shows up in the diff and applies cleanly.
	incoming := append(cfg.Scripts, enabledScript("two", "ctrl+alt+f2"))
	data, err := marshalScripts(incoming)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	preview, err = m.PreviewImport(path)
	if err != nil {
		t.Fatalf("PreviewImport: %v", err)
	}
	if !preview.Summary.Changed() {
		t.Fatal("expected the diff to show the new script")
	}

	if err := m.ApplyImport(preview); err != nil {
		t.Fatalf("ApplyImport: %v", err)
	}
	if len(cfg.Scripts) != 2 {
		t.Fatalf("got %d scripts, want 2", len(cfg.Scripts))
	}
	if got := len(svc.Registered()); got != 2 {
		t.Fatalf("got %d registrations, want 2", got)
	}
}

func TestPreviewImportRejectsBadHotkey(t *testing.T) {
	svc := newFakeService()
	cfg := testConfig(t)
	m := NewManager(cfg, svc, nil, nil)
	defer m.Close()

	path := filepath.Join(t.TempDir(), "scripts.json")
	bad := []byte(`[{"name": "x", "enabled": true, "hotkey": "bogus"}]`)
	if err := os.WriteFile(path, bad, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.PreviewImport(path); err == nil {
		t.Fatal("expected a parse error for the bad hotkey")
	}
}
