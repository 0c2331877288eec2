//go:build linux

package hotkey

import xhotkey "golang.design/x/hotkey"

// X11 lock masks that commonly interfere with XGrabKey.
// CapsLock is LockMask (1<<1) and NumLock is often Mod2.
const linuxCapsLockMask xhotkey.Modifier = 1 << 1

// nativeModifiers maps our modifier mask to X11 modifiers.
// Alt is typically Mod1 and Super/Win is typically Mod4.
func nativeModifiers(mods Modifier) ([]xhotkey.Modifier, error) {
	var out []xhotkey.Modifier
	if mods&ModCtrl != 0 {
		out = append(out, xhotkey.ModCtrl)
	}
	if mods&ModAlt != 0 {
		out = append(out, xhotkey.Mod1)
	}
	if mods&ModShift != 0 {
		out = append(out, xhotkey.ModShift)
	}
	if mods&ModWin != 0 {
		out = append(out, xhotkey.Mod4)
	}
	return out, nil
}

// expandModifiers registers the same hotkey for common lock-modifier
// states so it still triggers when NumLock/CapsLock are enabled.
func expandModifiers(modifiers []xhotkey.Modifier) [][]xhotkey.Modifier {
	base := append([]xhotkey.Modifier(nil), modifiers...)
	withNum := append(append([]xhotkey.Modifier(nil), modifiers...), xhotkey.Mod2)
	withCaps := append(append([]xhotkey.Modifier(nil), modifiers...), linuxCapsLockMask)
	withBoth := append(append([]xhotkey.Modifier(nil), modifiers...), xhotkey.Mod2, linuxCapsLockMask)

	return [][]xhotkey.Modifier{base, withNum, withCaps, withBoth}
}
