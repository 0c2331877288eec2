package script

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/macroloom/macroloom/internal/config"
	"github.com/macroloom/macroloom/internal/diffutil"
)

// ImportPreview compares an exported script file against the current
// configuration without applying anything.
type ImportPreview struct {
	Scripts  []config.ScriptConfig
	Current  string
	Proposed string
	Diff     string
	Summary  diffutil.Summary
}

// Export writes the configured scripts to path as indented JSON.
func (m *Manager) Export(path string) error {
	data, err := marshalScripts(m.cfg.Scripts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("scripts", len(m.cfg.Scripts)).Msg("exported scripts")
	return nil
}

// PreviewImport reads an exported script file and diffs it against the
// current configuration. Each imported script's hotkey must parse.
func (m *Manager) PreviewImport(path string) (*ImportPreview, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var incoming []config.ScriptConfig
	if err := json.Unmarshal(data, &incoming); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, sc := range incoming {
		if _, err := DefinitionFor(sc); err != nil {
			return nil, err
		}
	}

	current, err := marshalScripts(m.cfg.Scripts)
	if err != nil {
		return nil, err
	}
	proposed, err := marshalScripts(incoming)
	if err != nil {
		return nil, err
	}

	lines, sum := diffutil.Compare(string(current), string(proposed))
	return &ImportPreview{
		Scripts:  incoming,
		Current:  string(current),
		Proposed: string(proposed),
		Diff:     diffutil.Render(lines),
		Summary:  sum,
	}, nil
}

// ApplyImport replaces the configured scripts with a previewed import,
// persists the config, and re-syncs hotkey registrations.
func (m *Manager) ApplyImport(preview *ImportPreview) error {
	m.cfg.Scripts = preview.Scripts
	if err := m.cfg.Save(); err != nil {
		return err
	}
	log.Info().Int("scripts", len(preview.Scripts)).Msg("applied script import")
	return m.SyncHotkeys()
}

func marshalScripts(scripts []config.ScriptConfig) ([]byte, error) {
	data, err := json.MarshalIndent(scripts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding scripts: %w", err)
	}
	return append(data, '\n'), nil
}
