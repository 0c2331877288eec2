// Package clipboard wraps system clipboard access for script steps,
// remembering the pre-script content so it can be restored.
package clipboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
)

// Manager writes script output to the clipboard. The first write of a
// script run snapshots the prior content, Restore puts it back.
type Manager struct {
	mu                   sync.Mutex
	original             string
	hasOriginal          bool
	onRevertStatusChange func(bool)

	// Swapped out in tests.
	readAll  func() (string, error)
	writeAll func(string) error
}

func NewManager(onRevertStatusChange func(bool)) *Manager {
	return &Manager{
		onRevertStatusChange: onRevertStatusChange,
		readAll:              clipboard.ReadAll,
		writeAll:             clipboard.WriteAll,
	}
}

// Set writes text to the clipboard. The content being replaced is kept
// for Restore unless an earlier snapshot is still held.
func (m *Manager) Set(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasOriginal {
		current, err := m.readAll()
		if err != nil {
			log.Warn().Err(err).Msg("could not snapshot clipboard before write")
		} else {
			m.original = current
			m.hasOriginal = true
			m.notifyLocked(true)
		}
	}

	if err := m.writeAll(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}

// Read returns the current clipboard content.
func (m *Manager) Read() (string, error) {
	return m.readAll()
}

// CanRevert reports whether a snapshot is available.
func (m *Manager) CanRevert() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasOriginal
}

// Restore puts the snapshotted content back and drops the snapshot.
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasOriginal {
		return fmt.Errorf("no clipboard snapshot to restore")
	}
	if err := m.writeAll(m.original); err != nil {
		return fmt.Errorf("restoring clipboard: %w", err)
	}
	m.original = ""
	m.hasOriginal = false
	m.notifyLocked(false)
	log.Info().Msg("clipboard restored")
	return nil
}

func (m *Manager) notifyLocked(canRevert bool) {
	if m.onRevertStatusChange != nil {
		m.onRevertStatusChange(canRevert)
	}
}
