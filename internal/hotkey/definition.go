package hotkey

import (
	"fmt"
	"strings"
)

// Modifier is a bitmask of qualifier keys that must be held together with
// the primary key. The values match the Win32 MOD_* constants so the
// Windows capability can pass them through unchanged.
type Modifier uint32

const (
	ModAlt   Modifier = 0x0001
	ModCtrl  Modifier = 0x0002
	ModShift Modifier = 0x0004
	ModWin   Modifier = 0x0008
)

// Key is a platform-independent virtual key code. The numeric values are
// the Win32 VK_* codes; non-Windows capabilities translate them.
type Key uint32

// TriggerMode controls how a consumer wants repeated presses delivered
// while the combination stays held. It is deliberately excluded from
// hotkey identity: the coordinator treats it as the consumer's concern.
type TriggerMode int

const (
	TriggerOnce TriggerMode = iota
	TriggerRepeatWhileHeld
)

func (t TriggerMode) String() string {
	switch t {
	case TriggerOnce:
		return "once"
	case TriggerRepeatWhileHeld:
		return "repeat"
	default:
		return fmt.Sprintf("TriggerMode(%d)", int(t))
	}
}

// ParseTriggerMode converts a config string into a TriggerMode.
// An empty string means TriggerOnce.
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "once":
		return TriggerOnce, nil
	case "repeat", "repeat_while_held":
		return TriggerRepeatWhileHeld, nil
	default:
		return TriggerOnce, fmt.Errorf("unsupported trigger mode: %q", s)
	}
}

// Definition is an immutable description of a global hotkey.
type Definition struct {
	Mods    Modifier
	Key     Key
	Trigger TriggerMode
}

// Identity is the part of a Definition that determines hotkey identity:
// two definitions with the same modifiers and key are the same hotkey
// no matter what their trigger mode says.
type Identity struct {
	Mods Modifier
	Key  Key
}

// Identity returns the (modifiers, key) pair used for registration and
// conflict checks.
func (d Definition) Identity() Identity {
	return Identity{Mods: d.Mods, Key: d.Key}
}

// Valid reports whether the definition is structurally usable: at least
// one modifier and a key the platform layer knows how to register.
func (d Definition) Valid() bool {
	if d.Mods == 0 || d.Mods&^(ModAlt|ModCtrl|ModShift|ModWin) != 0 {
		return false
	}
	_, ok := keyNames[d.Key]
	return ok
}

// String renders the stable display form, e.g. "Ctrl+Alt+F1".
// Modifiers print in a fixed order regardless of how the definition was
// parsed so the same hotkey always displays identically.
func (d Definition) String() string {
	var parts []string
	if d.Mods&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if d.Mods&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if d.Mods&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if d.Mods&ModWin != 0 {
		parts = append(parts, "Win")
	}
	if name, ok := keyNames[d.Key]; ok {
		parts = append(parts, name)
	} else {
		parts = append(parts, fmt.Sprintf("Key(0x%X)", uint32(d.Key)))
	}
	return strings.Join(parts, "+")
}

// Parse converts a string combination such as "ctrl+alt+f1" into a
// Definition with TriggerOnce. Modifier and key names are matched case
// insensitively.
func Parse(s string) (Definition, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) < 2 {
		return Definition{}, fmt.Errorf("hotkey %q needs at least one modifier and a key", s)
	}

	var mods Modifier
	for _, part := range parts[:len(parts)-1] {
		switch part {
		case "ctrl":
			mods |= ModCtrl
		case "alt":
			mods |= ModAlt
		case "shift":
			mods |= ModShift
		case "super", "win", "cmd":
			mods |= ModWin
		default:
			return Definition{}, fmt.Errorf("unsupported modifier: %s", part)
		}
	}

	keyStr := parts[len(parts)-1]
	key, ok := KeyMap[keyStr]
	if !ok {
		return Definition{}, fmt.Errorf("unsupported key: %s", keyStr)
	}

	return Definition{Mods: mods, Key: key}, nil
}
