package script

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/macroloom/macroloom/internal/config"
	"github.com/macroloom/macroloom/internal/hotkey"
)

var secretRef = regexp.MustCompile(`\{\{secret:([A-Za-z0-9_.-]+)\}\}`)

func sleepMs(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Run executes a script's steps in order. The first failing step aborts
// the script.
func (m *Manager) Run(sc config.ScriptConfig) error {
	for i, step := range sc.Steps {
		if err := m.runStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	return nil
}

func (m *Manager) runStep(step config.Step) error {
	switch step.Action {
	case "delay":
		if step.Ms < 0 {
			return fmt.Errorf("negative delay %dms", step.Ms)
		}
		m.sleep(step.Ms)
		return nil

	case "clipboard":
		text, err := m.resolveSecrets(step.Text)
		if err != nil {
			return err
		}
		return m.writeClipboard(text)

	case "text":
		if m.relay == nil {
			return fmt.Errorf("text step needs a relay, none configured")
		}
		text, err := m.resolveSecrets(step.Text)
		if err != nil {
			return err
		}
		return m.relay.SendText(text)

	case "key":
		if m.relay == nil {
			return fmt.Errorf("key step needs a relay, none configured")
		}
		def, err := hotkey.Parse(step.Key)
		if err != nil {
			return err
		}
		return m.relay.SendKeyPress(byte(def.Mods), byte(def.Key))

	case "relay":
		if m.relay == nil {
			return fmt.Errorf("relay step needs a relay, none configured")
		}
		data, err := hex.DecodeString(step.Data)
		if err != nil {
			return fmt.Errorf("relay step data is not hex: %w", err)
		}
		return m.relay.Send(byte(step.Command), data)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

// resolveSecrets replaces {{secret:name}} references with values loaded
// from the keyring. An unresolved reference fails the step rather than
// leaking the placeholder into output.
func (m *Manager) resolveSecrets(text string) (string, error) {
	secrets := m.secrets()
	var missing string
	out := secretRef.ReplaceAllStringFunc(text, func(ref string) string {
		name := secretRef.FindStringSubmatch(ref)[1]
		value, ok := secrets[name]
		if !ok {
			missing = name
			return ref
		}
		return value
	})
	if missing != "" {
		log.Error().Str("secret", missing).Msg("secret reference not resolved")
		return "", fmt.Errorf("secret %q not found", missing)
	}
	return out, nil
}
