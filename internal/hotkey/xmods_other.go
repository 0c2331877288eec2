//go:build !windows && !linux && !darwin

package hotkey

import (
	"fmt"

	xhotkey "golang.design/x/hotkey"
)

// Global hotkeys are not supported on this OS. The project primarily
// targets Windows, Linux (X11) and macOS.
func nativeModifiers(Modifier) ([]xhotkey.Modifier, error) {
	return nil, fmt.Errorf("global hotkeys are not supported on this OS")
}

func expandModifiers(modifiers []xhotkey.Modifier) [][]xhotkey.Modifier {
	return [][]xhotkey.Modifier{modifiers}
}
