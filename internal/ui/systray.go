package ui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog/log"

	"github.com/macroloom/macroloom/internal/config"
)

// TrayCallbacks are invoked from menu click handlers. Nil callbacks
// leave the corresponding item inert.
type TrayCallbacks struct {
	OnReloadConfig     func()
	OnOpenConfig       func()
	OnCaptureHotkey    func()
	OnImportScripts    func()
	OnExportScripts    func()
	OnViewLastDiff     func()
	OnRestoreClipboard func()
	OnAddSecret        func()
	OnListSecrets      func()
	OnRemoveSecret     func()
	OnRestart          func()
	OnQuit             func()
}

// SystrayManager owns the tray icon, the script menu, and the capture
// mode flag consulted by the script manager before dispatching presses.
type SystrayManager struct {
	config       *config.Config
	version      string
	embeddedIcon []byte
	callbacks    TrayCallbacks

	capturing       atomic.Bool
	miViewLastDiff  *systray.MenuItem
	miRestore       *systray.MenuItem
	scriptMenuItems map[int]*systray.MenuItem
}

func NewSystrayManager(cfg *config.Config, version string, embeddedIcon []byte, callbacks TrayCallbacks) *SystrayManager {
	return &SystrayManager{
		config:          cfg,
		version:         version,
		embeddedIcon:    embeddedIcon,
		callbacks:       callbacks,
		scriptMenuItems: make(map[int]*systray.MenuItem),
	}
}

// Run blocks until the tray exits.
func (s *SystrayManager) Run() {
	systray.Run(s.onReady, s.onExit)
}

// Capturing reports whether hotkey capture mode is active. Script
// execution is suppressed while it returns true.
func (s *SystrayManager) Capturing() bool {
	return s.capturing.Load()
}

// SetCapturing flips capture mode. The flag is read from press handler
// goroutines, so it is atomic.
func (s *SystrayManager) SetCapturing(active bool) {
	s.capturing.Store(active)
	log.Debug().Bool("active", active).Msg("capture mode changed")
}

// UpdateConfig swaps the config reference after a reload and refreshes
// the script checkmarks.
func (s *SystrayManager) UpdateConfig(newCfg *config.Config) {
	s.config = newCfg
	for i, item := range s.scriptMenuItems {
		if item == nil {
			continue
		}
		if i >= len(s.config.Scripts) {
			item.Disable()
			continue
		}
		item.SetTitle(scriptMenuTitle(s.config.Scripts[i]))
	}
}

// UpdateRevertStatus enables the restore item while a clipboard
// snapshot is held.
func (s *SystrayManager) UpdateRevertStatus(enabled bool) {
	if s.miRestore == nil {
		return
	}
	if enabled {
		s.miRestore.Enable()
	} else {
		s.miRestore.Disable()
	}
}

// UpdateViewLastDiffStatus enables the diff item once an import preview
// exists.
func (s *SystrayManager) UpdateViewLastDiffStatus(enabled bool) {
	if s.miViewLastDiff == nil {
		return
	}
	if enabled {
		s.miViewLastDiff.Enable()
	} else {
		s.miViewLastDiff.Disable()
	}
}

func (s *SystrayManager) onReady() {
	title := fmt.Sprintf("Macroloom %s", s.version)
	systray.SetTitle(title)
	systray.SetTooltip(title)
	if len(s.embeddedIcon) > 0 {
		systray.SetIcon(s.embeddedIcon)
	} else {
		log.Warn().Msg("no embedded icon for systray")
	}

	miVersion := systray.AddMenuItem(fmt.Sprintf("Version: %s", s.version), "Macroloom version")
	miVersion.Disable()
	systray.AddSeparator()

	s.buildScriptMenu()
	miCapture := systray.AddMenuItem("Set Script Hotkey...", "Capture a new hotkey for a script")
	systray.AddSeparator()

	miImport := systray.AddMenuItem("Import Scripts...", "Load scripts from a JSON export")
	miExport := systray.AddMenuItem("Export Scripts...", "Save scripts to a JSON file")
	s.miViewLastDiff = systray.AddMenuItem("View Last Import Diff", "Show what the last import preview would change")
	s.miViewLastDiff.Disable()
	systray.AddSeparator()

	s.miRestore = systray.AddMenuItem("Restore Clipboard", "Put back the clipboard content from before the last script")
	s.miRestore.Disable()

	miManageSecrets := systray.AddMenuItem("Manage Secrets", "Add/Remove sensitive values")
	miAddSecret := miManageSecrets.AddSubMenuItem("Add/Update Secret...", "Store a new sensitive value")
	miListSecrets := miManageSecrets.AddSubMenuItem("List Secret Names", "Show names of stored secrets")
	miRemoveSecret := miManageSecrets.AddSubMenuItem("Remove Secret...", "Delete a stored secret")
	systray.AddSeparator()

	miReloadConfig := systray.AddMenuItem("Reload Configuration", "Reload config.json and re-sync hotkeys")
	miOpenConfig := systray.AddMenuItem("Open Config File", "Open config.json in default editor")
	miRestartApp := systray.AddMenuItem("Restart Application", "Restart Macroloom")
	systray.AddSeparator()
	miQuit := systray.AddMenuItem("Quit", "Exit the application")

	clickHandler(miCapture, s.callbacks.OnCaptureHotkey)
	clickHandler(miImport, s.callbacks.OnImportScripts)
	clickHandler(miExport, s.callbacks.OnExportScripts)
	clickHandler(s.miViewLastDiff, s.callbacks.OnViewLastDiff)
	clickHandler(s.miRestore, s.callbacks.OnRestoreClipboard)
	clickHandler(miAddSecret, s.callbacks.OnAddSecret)
	clickHandler(miListSecrets, s.callbacks.OnListSecrets)
	clickHandler(miRemoveSecret, s.callbacks.OnRemoveSecret)
	clickHandler(miReloadConfig, s.callbacks.OnReloadConfig)
	clickHandler(miOpenConfig, s.callbacks.OnOpenConfig)
	clickHandler(miRestartApp, s.callbacks.OnRestart)

	go func() {
		<-miQuit.ClickedCh
		log.Info().Msg("quit requested from tray")
		if s.callbacks.OnQuit != nil {
			s.callbacks.OnQuit()
		}
		systray.Quit()
	}()

	log.Info().Msg("systray ready")
}

func (s *SystrayManager) onExit() {
	log.Info().Msg("systray exiting")
}

func clickHandler(item *systray.MenuItem, fn func()) {
	if item == nil || fn == nil {
		return
	}
	go func() {
		for range item.ClickedCh {
			fn()
		}
	}()
}

func scriptMenuTitle(sc config.ScriptConfig) string {
	if sc.Enabled {
		return "✓ " + sc.Name
	}
	return "  " + sc.Name
}

// buildScriptMenu creates the per-script toggle submenu. Clicking a
// script flips Enabled, persists the config, and triggers a reload so
// registrations follow.
func (s *SystrayManager) buildScriptMenu() {
	s.scriptMenuItems = make(map[int]*systray.MenuItem)
	miScripts := systray.AddMenuItem("Scripts", "Enable or disable macro scripts")

	if s.config == nil || len(s.config.Scripts) == 0 {
		empty := miScripts.AddSubMenuItem("(No scripts defined)", "Add scripts in config.json")
		empty.Disable()
		return
	}

	for i := range s.config.Scripts {
		idx := i
		sc := s.config.Scripts[idx]
		tooltip := fmt.Sprintf("Toggle script: %s (Hotkey: %s)", sc.Name, sc.Hotkey)
		item := miScripts.AddSubMenuItem(scriptMenuTitle(sc), tooltip)
		s.scriptMenuItems[idx] = item

		go func(item *systray.MenuItem, idx int) {
			for range item.ClickedCh {
				if s.config == nil || idx >= len(s.config.Scripts) {
					log.Warn().Int("index", idx).Msg("script list changed, cannot toggle")
					Notify(LevelWarn, "Menu Inconsistency", "Script list changed. Please reload or restart.")
					continue
				}
				sc := &s.config.Scripts[idx]
				sc.Enabled = !sc.Enabled
				item.SetTitle(scriptMenuTitle(*sc))
				log.Info().Str("script", sc.Name).Bool("enabled", sc.Enabled).Msg("script toggled")

				if err := s.config.Save(); err != nil {
					log.Error().Err(err).Str("script", sc.Name).Msg("saving config after toggle")
					Notify(LevelError, "Save Error", fmt.Sprintf("Failed to save config after toggling %q: %v", sc.Name, err))
					sc.Enabled = !sc.Enabled
					item.SetTitle(scriptMenuTitle(*sc))
					continue
				}

				status := "disabled"
				if sc.Enabled {
					status = "enabled"
				}
				Notify(LevelInfo, "Script Updated", fmt.Sprintf("Script %q has been %s.", sc.Name, status))
				if s.callbacks.OnReloadConfig != nil {
					time.Sleep(150 * time.Millisecond)
					s.callbacks.OnReloadConfig()
				}
			}
		}(item, idx)
	}
}

// IsDevMode reports whether the binary runs from a go-build temp dir.
func IsDevMode() bool {
	execPath, err := os.Executable()
	if err != nil {
		log.Warn().Err(err).Msg("could not get executable path")
		return false
	}
	if strings.Contains(execPath, string(filepath.Separator)+"go-build") {
		return true
	}
	cleanedExecDir := filepath.Clean(filepath.Dir(execPath))
	cleanedTempDir := filepath.Clean(os.TempDir())
	return strings.HasPrefix(cleanedExecDir, cleanedTempDir)
}

// RestartApplication starts a fresh process and exits the current one.
func RestartApplication() {
	if IsDevMode() {
		log.Info().Msg("dev mode detected, automatic restart not supported")
		Notify(LevelWarn, "Manual Restart Needed", "App running in dev mode. Please stop and run it again manually.")
		return
	}
	execPath, err := os.Executable()
	if err != nil {
		log.Error().Err(err).Msg("getting executable path for restart")
		Notify(LevelError, "Restart Error", fmt.Sprintf("Failed to get executable path: %v", err))
		return
	}
	cmd := exec.Command(execPath, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if cwd, err := os.Getwd(); err == nil {
		cmd.Dir = cwd
	}
	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Msg("starting new process for restart")
		Notify(LevelError, "Restart Error", fmt.Sprintf("Failed to start new process: %v", err))
		return
	}
	log.Info().Msg("new process started, exiting")
	systray.Quit()
	os.Exit(0)
}
