//go:build !windows

package hotkey

import (
	"fmt"

	xhotkey "golang.design/x/hotkey"
)

// xKeyMap translates our virtual-key codes into golang.design/x/hotkey
// key constants.
var xKeyMap = map[Key]xhotkey.Key{
	KeyA: xhotkey.KeyA,
	KeyB: xhotkey.KeyB,
	KeyC: xhotkey.KeyC,
	KeyD: xhotkey.KeyD,
	KeyE: xhotkey.KeyE,
	KeyF: xhotkey.KeyF,
	KeyG: xhotkey.KeyG,
	KeyH: xhotkey.KeyH,
	KeyI: xhotkey.KeyI,
	KeyJ: xhotkey.KeyJ,
	KeyK: xhotkey.KeyK,
	KeyL: xhotkey.KeyL,
	KeyM: xhotkey.KeyM,
	KeyN: xhotkey.KeyN,
	KeyO: xhotkey.KeyO,
	KeyP: xhotkey.KeyP,
	KeyQ: xhotkey.KeyQ,
	KeyR: xhotkey.KeyR,
	KeyS: xhotkey.KeyS,
	KeyT: xhotkey.KeyT,
	KeyU: xhotkey.KeyU,
	KeyV: xhotkey.KeyV,
	KeyW: xhotkey.KeyW,
	KeyX: xhotkey.KeyX,
	KeyY: xhotkey.KeyY,
	KeyZ: xhotkey.KeyZ,

	Key0: xhotkey.Key0,
	Key1: xhotkey.Key1,
	Key2: xhotkey.Key2,
	Key3: xhotkey.Key3,
	Key4: xhotkey.Key4,
	Key5: xhotkey.Key5,
	Key6: xhotkey.Key6,
	Key7: xhotkey.Key7,
	Key8: xhotkey.Key8,
	Key9: xhotkey.Key9,

	KeyF1:  xhotkey.KeyF1,
	KeyF2:  xhotkey.KeyF2,
	KeyF3:  xhotkey.KeyF3,
	KeyF4:  xhotkey.KeyF4,
	KeyF5:  xhotkey.KeyF5,
	KeyF6:  xhotkey.KeyF6,
	KeyF7:  xhotkey.KeyF7,
	KeyF8:  xhotkey.KeyF8,
	KeyF9:  xhotkey.KeyF9,
	KeyF10: xhotkey.KeyF10,
	KeyF11: xhotkey.KeyF11,
	KeyF12: xhotkey.KeyF12,

	KeySpace:  xhotkey.KeySpace,
	KeyTab:    xhotkey.KeyTab,
	KeyReturn: xhotkey.KeyReturn,
	KeyEscape: xhotkey.KeyEscape,
	KeyDelete: xhotkey.KeyDelete,
}

// nativeCombos resolves a (modifiers, key) pair into the library's key
// plus one or more modifier combinations to grab. The modifier mapping
// and lock-mask expansion are platform specific; see xmods_*.go.
func nativeCombos(mods Modifier, key Key) ([][]xhotkey.Modifier, xhotkey.Key, error) {
	xkey, ok := xKeyMap[key]
	if !ok {
		return nil, 0, fmt.Errorf("key 0x%X has no mapping on this platform", uint32(key))
	}
	base, err := nativeModifiers(mods)
	if err != nil {
		return nil, 0, err
	}
	return expandModifiers(base), xkey, nil
}
