//go:build darwin

package hotkey

import xhotkey "golang.design/x/hotkey"

// nativeModifiers maps our modifier mask to macOS modifiers: Alt becomes
// Option and Win becomes Cmd.
func nativeModifiers(mods Modifier) ([]xhotkey.Modifier, error) {
	var out []xhotkey.Modifier
	if mods&ModCtrl != 0 {
		out = append(out, xhotkey.ModCtrl)
	}
	if mods&ModAlt != 0 {
		out = append(out, xhotkey.ModOption)
	}
	if mods&ModShift != 0 {
		out = append(out, xhotkey.ModShift)
	}
	if mods&ModWin != 0 {
		out = append(out, xhotkey.ModCmd)
	}
	return out, nil
}

// expandModifiers is a no-op on macOS; lock keys do not affect the grab.
func expandModifiers(modifiers []xhotkey.Modifier) [][]xhotkey.Modifier {
	return [][]xhotkey.Modifier{modifiers}
}
