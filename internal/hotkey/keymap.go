package hotkey

import "strings"

// Key constants use the Win32 virtual-key values. The non-Windows
// capability translates them in xkeys.go.
const (
	KeyA Key = 0x41 + iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
)

const (
	Key0 Key = 0x30 + iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
)

const (
	KeyF1 Key = 0x70 + iota
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

const (
	KeySpace  Key = 0x20
	KeyTab    Key = 0x09
	KeyReturn Key = 0x0D
	KeyEscape Key = 0x1B
	KeyDelete Key = 0x2E
)

// KeyMap provides mapping between string representations and Key values.
var KeyMap = map[string]Key{
	// Letters
	"a": KeyA,
	"b": KeyB,
	"c": KeyC,
	"d": KeyD,
	"e": KeyE,
	"f": KeyF,
	"g": KeyG,
	"h": KeyH,
	"i": KeyI,
	"j": KeyJ,
	"k": KeyK,
	"l": KeyL,
	"m": KeyM,
	"n": KeyN,
	"o": KeyO,
	"p": KeyP,
	"q": KeyQ,
	"r": KeyR,
	"s": KeyS,
	"t": KeyT,
	"u": KeyU,
	"v": KeyV,
	"w": KeyW,
	"x": KeyX,
	"y": KeyY,
	"z": KeyZ,

	// Numbers
	"0": Key0,
	"1": Key1,
	"2": Key2,
	"3": Key3,
	"4": Key4,
	"5": Key5,
	"6": Key6,
	"7": Key7,
	"8": Key8,
	"9": Key9,

	// Function keys
	"f1":  KeyF1,
	"f2":  KeyF2,
	"f3":  KeyF3,
	"f4":  KeyF4,
	"f5":  KeyF5,
	"f6":  KeyF6,
	"f7":  KeyF7,
	"f8":  KeyF8,
	"f9":  KeyF9,
	"f10": KeyF10,
	"f11": KeyF11,
	"f12": KeyF12,

	// Special keys
	"space":  KeySpace,
	"tab":    KeyTab,
	"enter":  KeyReturn,
	"escape": KeyEscape,
	"delete": KeyDelete,
}

// keyNames is the reverse of KeyMap with display casing ("f1" -> "F1",
// "enter" -> "Enter"), built once at package init.
var keyNames = func() map[Key]string {
	names := make(map[Key]string, len(KeyMap))
	for s, k := range KeyMap {
		if len(s) == 1 {
			names[k] = strings.ToUpper(s)
		} else {
			names[k] = strings.ToUpper(s[:1]) + s[1:]
		}
	}
	return names
}()
