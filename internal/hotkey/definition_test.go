package hotkey

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Definition
	}{
		{"ctrl+alt+f1", Definition{Mods: ModCtrl | ModAlt, Key: KeyF1}},
		{"Ctrl+Shift+X", Definition{Mods: ModCtrl | ModShift, Key: KeyX}},
		{"win+space", Definition{Mods: ModWin, Key: KeySpace}},
		{"super+9", Definition{Mods: ModWin, Key: Key9}},
		{"cmd+enter", Definition{Mods: ModWin, Key: KeyReturn}},
		{"alt+ctrl+f1", Definition{Mods: ModCtrl | ModAlt, Key: KeyF1}}, // order-insensitive
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "f1", "hyper+f1", "ctrl+banana", "ctrl+"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestDisplayString(t *testing.T) {
	tests := []struct {
		def  Definition
		want string
	}{
		{Definition{Mods: ModCtrl | ModAlt, Key: KeyF1}, "Ctrl+Alt+F1"},
		{Definition{Mods: ModShift | ModCtrl, Key: KeyX}, "Ctrl+Shift+X"},
		{Definition{Mods: ModWin, Key: KeySpace}, "Win+Space"},
		{Definition{Mods: ModCtrl, Key: KeyReturn}, "Ctrl+Enter"},
	}
	for _, tt := range tests {
		if got := tt.def.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.def, got, tt.want)
		}
	}
}

func TestDisplayStringIsStable(t *testing.T) {
	a, err := Parse("ctrl+alt+f1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("alt+ctrl+f1")
	if err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Errorf("same combination renders differently: %q vs %q", a, b)
	}
}

func TestIdentityIgnoresTriggerMode(t *testing.T) {
	once := Definition{Mods: ModCtrl | ModAlt, Key: KeyF1, Trigger: TriggerOnce}
	repeat := Definition{Mods: ModCtrl | ModAlt, Key: KeyF1, Trigger: TriggerRepeatWhileHeld}

	if once.Identity() != repeat.Identity() {
		t.Error("trigger mode must not be part of hotkey identity")
	}
	if once == repeat {
		t.Error("definitions with different trigger modes are still distinct values")
	}
}

func TestValid(t *testing.T) {
	valid := []Definition{
		{Mods: ModCtrl, Key: KeyA},
		{Mods: ModCtrl | ModAlt | ModShift | ModWin, Key: KeyF12},
	}
	for _, def := range valid {
		if !def.Valid() {
			t.Errorf("%+v should be valid", def)
		}
	}

	invalid := []Definition{
		{},
		{Key: KeyA},                       // no modifiers
		{Mods: ModCtrl},                   // zero key
		{Mods: ModCtrl, Key: Key(0xFFFF)}, // unknown key
		{Mods: Modifier(0x4000), Key: KeyA},
	}
	for _, def := range invalid {
		if def.Valid() {
			t.Errorf("%+v should be invalid", def)
		}
	}
}

func TestParseTriggerMode(t *testing.T) {
	for in, want := range map[string]TriggerMode{
		"":                  TriggerOnce,
		"once":              TriggerOnce,
		"repeat":            TriggerRepeatWhileHeld,
		"repeat_while_held": TriggerRepeatWhileHeld,
	} {
		got, err := ParseTriggerMode(in)
		if err != nil {
			t.Errorf("ParseTriggerMode(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseTriggerMode(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseTriggerMode("sometimes"); err == nil {
		t.Error("ParseTriggerMode should reject unknown modes")
	}
}
