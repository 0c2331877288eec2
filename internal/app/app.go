// Package app wires configuration, the hotkey service, the script
// manager, the Arduino relay, and the tray UI into one application.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"

	"github.com/macroloom/macroloom/internal/clipboard"
	"github.com/macroloom/macroloom/internal/config"
	"github.com/macroloom/macroloom/internal/hotkey"
	"github.com/macroloom/macroloom/internal/relay"
	"github.com/macroloom/macroloom/internal/resources"
	"github.com/macroloom/macroloom/internal/script"
	"github.com/macroloom/macroloom/internal/ui"
)

const appName = "Macroloom"

// Application owns every long-lived component and the callbacks behind
// the tray menu.
type Application struct {
	config   *config.Config
	version  string
	iconData []byte

	hotkeys  *hotkey.Service
	scripts  *script.Manager
	clip     *clipboard.Manager
	relay    *relay.Relay
	tray     *ui.SystrayManager
	lastDiff *script.ImportPreview
}

// New builds the application. The hotkey pump starts here, script
// registrations happen in Run.
func New(cfg *config.Config, version string) *Application {
	a := &Application{config: cfg, version: version}

	var err error
	a.iconData, err = resources.GetIcon()
	if err != nil {
		log.Warn().Err(err).Msg("loading embedded icon")
	}

	a.clip = clipboard.NewManager(a.onRevertStatusChange)
	a.hotkeys = hotkey.NewNative(hotkey.Options{})

	if cfg.RelayPort != "" {
		a.relay, err = relay.Open(cfg.RelayPort, cfg.RelayBaud)
		if err != nil {
			log.Warn().Err(err).Str("port", cfg.RelayPort).Msg("relay unavailable, text and key steps will fail")
			ui.Notify(ui.LevelWarn, "Relay Unavailable", fmt.Sprintf("Could not open %s: %v", cfg.RelayPort, err))
		}
	}

	a.tray = ui.NewSystrayManager(cfg, version, a.iconData, ui.TrayCallbacks{
		OnReloadConfig:     a.onReloadConfig,
		OnOpenConfig:       a.onOpenConfigFile,
		OnCaptureHotkey:    a.onCaptureHotkey,
		OnImportScripts:    a.onImportScripts,
		OnExportScripts:    a.onExportScripts,
		OnViewLastDiff:     a.onViewLastDiff,
		OnRestoreClipboard: a.onRestoreClipboard,
		OnAddSecret:        a.onAddSecret,
		OnListSecrets:      a.onListSecrets,
		OnRemoveSecret:     a.onRemoveSecret,
		OnRestart:          ui.RestartApplication,
		OnQuit:             a.onQuit,
	})

	a.scripts = script.NewManager(cfg, a.hotkeys, a.inputRelay(), a.tray.Capturing)
	a.scripts.SetClipboardWriter(a.clip.Set)

	return a
}

// inputRelay converts the relay pointer to the script interface without
// smuggling a typed nil into the interface value.
func (a *Application) inputRelay() script.InputRelay {
	if a.relay == nil {
		return nil
	}
	return a.relay
}

// Run registers the configured hotkeys and blocks on the tray loop.
func (a *Application) Run() {
	if !hotkey.HotkeysAvailable() {
		log.Warn().Stringer("display", hotkey.DetectDisplayServer()).Msg("global hotkeys may not work on this display server")
		ui.Notify(ui.LevelWarn, "Hotkeys Unavailable", "Global hotkeys are not supported on this display server.")
	}

	if err := a.scripts.SyncHotkeys(); err != nil {
		log.Warn().Err(err).Msg("some hotkeys could not be registered")
		ui.Notify(ui.LevelWarn, "Hotkey Registration Issue", fmt.Sprintf("Some hotkeys could not be registered: %v", err))
	}

	if a.relay != nil {
		go a.consumeRelayEvents()
	}

	a.tray.Run()
}

// consumeRelayEvents drains firmware events so the relay read loop
// never stalls. Errors reported by the firmware surface as warnings.
func (a *Application) consumeRelayEvents() {
	for ev := range a.relay.Events() {
		switch ev.Type {
		case relay.EvtError:
			log.Warn().Hex("data", ev.Data).Uint32("ts", ev.Timestamp).Msg("relay reported an error")
		case relay.EvtStatusResponse:
			log.Info().Hex("data", ev.Data).Msg("relay status")
		default:
			log.Debug().Uint8("type", ev.Type).Hex("data", ev.Data).Msg("relay event")
		}
	}
	log.Info().Msg("relay event stream closed")
}

func (a *Application) onRevertStatusChange(canRevert bool) {
	if a.tray != nil {
		a.tray.UpdateRevertStatus(canRevert)
	}
}

func (a *Application) onRestoreClipboard() {
	if err := a.clip.Restore(); err != nil {
		ui.Notify(ui.LevelWarn, "Restore Failed", err.Error())
		return
	}
	ui.Notify(ui.LevelInfo, "Clipboard Restored", "Original clipboard content has been restored.")
}

// onReloadConfig re-reads config.json, reloads secrets, and re-syncs
// hotkeys. The script manager is rebuilt so it sees the new config.
func (a *Application) onReloadConfig() {
	newCfg, err := config.Load(a.config.GetConfigPath())
	if err != nil {
		log.Error().Err(err).Msg("reloading configuration")
		ui.Notify(ui.LevelError, "Configuration Error", fmt.Sprintf("Failed to reload config: %v", err))
		return
	}

	a.scripts.Close()
	a.config = newCfg
	a.scripts = script.NewManager(newCfg, a.hotkeys, a.inputRelay(), a.tray.Capturing)
	a.scripts.SetClipboardWriter(a.clip.Set)
	a.tray.UpdateConfig(newCfg)

	if err := a.scripts.SyncHotkeys(); err != nil {
		log.Warn().Err(err).Msg("hotkey sync after reload")
		ui.Notify(ui.LevelWarn, "Configuration Reloaded", fmt.Sprintf("Reloaded with hotkey issues: %v", err))
		return
	}
	ui.Notify(ui.LevelInfo, "Configuration Reloaded", "Configuration and secrets updated successfully.")
}

func (a *Application) onOpenConfigFile() {
	path := a.config.GetConfigPath()
	if err := ui.OpenFileInDefaultApp(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("opening config file")
		ui.Notify(ui.LevelWarn, "Error Opening File", fmt.Sprintf("Could not open %s: %v", path, err))
	}
}

// onCaptureHotkey lets the user pick a script and type a new hotkey for
// it. Dispatch is suppressed through the whole dialog.
func (a *Application) onCaptureHotkey() {
	if len(a.config.Scripts) == 0 {
		ui.Notify(ui.LevelInfo, "No Scripts", "Add scripts in config.json before assigning hotkeys.")
		return
	}

	names := make([]string, len(a.config.Scripts))
	for i, sc := range a.config.Scripts {
		names[i] = sc.Name
	}
	selected, err := zenity.List(
		"Select the script to assign a new hotkey:",
		names,
		zenity.Title(appName+" - Set Script Hotkey"),
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Error().Err(err).Msg("script selection dialog")
		}
		return
	}

	combo, err := a.tray.CaptureHotkey(selected)
	if err != nil {
		if !errors.Is(err, ui.ErrCaptureCanceled) {
			log.Error().Err(err).Msg("hotkey capture")
			ui.Notify(ui.LevelWarn, "Capture Failed", err.Error())
		}
		return
	}

	for i := range a.config.Scripts {
		if a.config.Scripts[i].Name == selected {
			a.config.Scripts[i].Hotkey = combo
			break
		}
	}
	if err := a.config.Save(); err != nil {
		log.Error().Err(err).Msg("saving config after hotkey capture")
		ui.Notify(ui.LevelError, "Save Error", fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	if err := a.scripts.SyncHotkeys(); err != nil {
		ui.Notify(ui.LevelWarn, "Hotkey Updated", fmt.Sprintf("Saved %s for %q, but re-registering failed: %v", combo, selected, err))
		return
	}
	ui.Notify(ui.LevelInfo, "Hotkey Updated", fmt.Sprintf("Script %q now uses %s.", selected, combo))
}

func (a *Application) onImportScripts() {
	path, err := zenity.SelectFile(
		zenity.Title(appName+" - Import Scripts"),
		zenity.FileFilter{Name: "JSON files", Patterns: []string{"*.json"}},
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Error().Err(err).Msg("import file dialog")
		}
		return
	}

	preview, err := a.scripts.PreviewImport(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("previewing import")
		ui.Notify(ui.LevelError, "Import Failed", err.Error())
		return
	}
	a.lastDiff = preview
	a.tray.UpdateViewLastDiffStatus(true)

	if !preview.Summary.Changed() {
		ui.Notify(ui.LevelInfo, "Import", "The selected file matches the current scripts. Nothing to do.")
		return
	}

	err = zenity.Question(
		fmt.Sprintf("Apply import from %s?\n\n%s\n\nUse 'View Last Import Diff' in the tray menu to inspect the changes first.", path, preview.Summary),
		zenity.Title(appName+" - Import Scripts"),
		zenity.QuestionIcon,
		zenity.OKLabel("Apply"),
		zenity.CancelLabel("Cancel"),
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Error().Err(err).Msg("import confirmation dialog")
		}
		return
	}

	if err := a.scripts.ApplyImport(preview); err != nil {
		log.Error().Err(err).Msg("applying import")
		ui.Notify(ui.LevelError, "Import Failed", err.Error())
		return
	}
	a.tray.UpdateConfig(a.config)
	ui.Notify(ui.LevelInfo, "Import Applied", fmt.Sprintf("Imported %d scripts.", len(preview.Scripts)))
}

func (a *Application) onExportScripts() {
	path, err := zenity.SelectFileSave(
		zenity.Title(appName+" - Export Scripts"),
		zenity.ConfirmOverwrite(),
		zenity.Filename("macroloom-scripts.json"),
		zenity.FileFilter{Name: "JSON files", Patterns: []string{"*.json"}},
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Error().Err(err).Msg("export file dialog")
		}
		return
	}
	if err := a.scripts.Export(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("exporting scripts")
		ui.Notify(ui.LevelError, "Export Failed", err.Error())
		return
	}
	ui.Notify(ui.LevelInfo, "Export Complete", fmt.Sprintf("Scripts written to %s.", path))
}

func (a *Application) onViewLastDiff() {
	if a.lastDiff == nil {
		ui.Notify(ui.LevelInfo, "View Changes", "No import preview recorded yet.")
		a.tray.UpdateViewLastDiffStatus(false)
		return
	}
	ui.ShowDiffViewer(a.lastDiff.Current, a.lastDiff.Proposed)
}

func (a *Application) onAddSecret() {
	name, err := zenity.Entry(
		"Step 1: Enter logical name\n(e.g. my_api_key, no spaces or special characters)",
		zenity.Title(appName+" - Add/Update Secret"),
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Error().Err(err).Msg("secret name dialog")
			ui.Notify(ui.LevelWarn, "Input Error", "Failed to get the secret name.")
		}
		return
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t{}") {
		ui.Notify(ui.LevelWarn, "Invalid Input", fmt.Sprintf("%q is not a usable secret name.", name))
		return
	}

	_, value, err := zenity.Password(
		zenity.Title(fmt.Sprintf("%s - Step 2: Enter value for %q", appName, name)),
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Error().Err(err).Str("secret", name).Msg("secret value dialog")
			ui.Notify(ui.LevelWarn, "Input Error", "Failed to get the secret value.")
		}
		return
	}
	if value == "" {
		ui.Notify(ui.LevelWarn, "Invalid Input", "Secret value cannot be empty.")
		return
	}

	if err := a.config.AddSecretReference(name, value); err != nil {
		log.Error().Err(err).Str("secret", name).Msg("storing secret")
		ui.Notify(ui.LevelError, "Keyring Error", fmt.Sprintf("Failed to store secret %q: %v", name, err))
		return
	}
	if err := a.config.Save(); err != nil {
		log.Error().Err(err).Msg("saving config after secret add")
		ui.Notify(ui.LevelError, "Save Error", fmt.Sprintf("Secret stored, but saving config failed: %v", err))
		return
	}
	ui.Notify(ui.LevelInfo, "Secret Stored",
		fmt.Sprintf("Secret %q saved. Reference it in steps as {{secret:%s}}. Reload to use it.", name, name))
}

func (a *Application) onListSecrets() {
	names := a.config.GetSecretNames()
	if len(names) == 0 {
		zenity.Info("No secrets are stored.",
			zenity.Title(appName+" - Managed Secrets"), zenity.InfoIcon)
		return
	}
	var b strings.Builder
	b.WriteString("Stored secret names (values stay in the system keyring):\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s  ->  {{secret:%s}}\n", name, name)
	}
	zenity.Info(b.String(), zenity.Title(appName+" - Managed Secrets"), zenity.InfoIcon)
}

func (a *Application) onRemoveSecret() {
	names := a.config.GetSecretNames()
	if len(names) == 0 {
		zenity.Info("No secrets are stored.",
			zenity.Title(appName+" - Remove Secret"), zenity.InfoIcon)
		return
	}

	name, err := zenity.List(
		"Select the secret to remove:",
		names,
		zenity.Title(appName+" - Remove Secret"),
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Error().Err(err).Msg("secret selection dialog")
		}
		return
	}

	err = zenity.Question(
		fmt.Sprintf("Remove secret %q from the keyring?\nSteps referencing {{secret:%s}} will fail afterwards.", name, name),
		zenity.Title(appName+" - Confirm Removal"),
		zenity.WarningIcon,
		zenity.OKLabel("Remove"),
		zenity.CancelLabel("Cancel"),
	)
	if err != nil {
		if !errors.Is(err, zenity.ErrCanceled) {
			log.Error().Err(err).Msg("removal confirmation dialog")
		}
		return
	}

	if err := a.config.RemoveSecretReference(name); err != nil {
		log.Error().Err(err).Str("secret", name).Msg("removing secret")
		ui.Notify(ui.LevelError, "Keyring Error", fmt.Sprintf("Failed to remove secret %q: %v", name, err))
		return
	}
	if err := a.config.Save(); err != nil {
		log.Error().Err(err).Msg("saving config after secret removal")
		ui.Notify(ui.LevelError, "Save Error", fmt.Sprintf("Secret removed, but saving config failed: %v", err))
		return
	}
	ui.Notify(ui.LevelInfo, "Secret Removed", fmt.Sprintf("Secret %q has been removed.", name))
}

// onQuit tears everything down in dependency order: scripts first so no
// press handler fires mid-shutdown, then the relay and the hotkey pump.
func (a *Application) onQuit() {
	a.scripts.Close()
	if a.relay != nil {
		if err := a.relay.Close(); err != nil {
			log.Warn().Err(err).Msg("closing relay")
		}
	}
	if err := a.hotkeys.Close(); err != nil && !errors.Is(err, hotkey.ErrDisposed) {
		log.Warn().Err(err).Msg("closing hotkey service")
	}
	log.Info().Msg("shutdown complete")
}
