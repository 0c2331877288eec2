package hotkey

import (
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
)

// DisplayServer represents the type of display server in use.
type DisplayServer int

const (
	DisplayServerUnknown DisplayServer = iota
	DisplayServerWindows
	DisplayServerX11
	DisplayServerWayland
)

func (ds DisplayServer) String() string {
	switch ds {
	case DisplayServerWindows:
		return "Windows"
	case DisplayServerX11:
		return "X11"
	case DisplayServerWayland:
		return "Wayland"
	default:
		return "Unknown"
	}
}

// DetectDisplayServer determines which display server is currently in
// use. Safe to call on any platform. The Wayland case matters: the
// native capability cannot grab global keys there, so the application
// warns at startup instead of failing each registration.
func DetectDisplayServer() DisplayServer {
	if runtime.GOOS == "windows" {
		return DisplayServerWindows
	}

	// Check Wayland first (more specific), then X11.
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayServerWayland
	}
	if os.Getenv("DISPLAY") != "" {
		return DisplayServerX11
	}

	// macOS uses its own windowing system; the capability library
	// supports it directly.
	if runtime.GOOS == "darwin" {
		return DisplayServerX11
	}

	log.Warn().Msg("could not detect display server type")
	return DisplayServerUnknown
}

// HotkeysAvailable reports whether global hotkey registration can work
// in the current environment.
func HotkeysAvailable() bool {
	switch DetectDisplayServer() {
	case DisplayServerWindows, DisplayServerX11:
		return true
	default:
		return false
	}
}
