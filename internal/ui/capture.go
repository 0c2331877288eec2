package ui

import (
	"errors"
	"fmt"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"

	"github.com/macroloom/macroloom/internal/hotkey"
)

// ErrCaptureCanceled is returned when the user dismisses the capture
// dialog.
var ErrCaptureCanceled = errors.New("hotkey capture canceled")

// CaptureHotkey prompts for a new hotkey combination for a script.
// Capture mode stays active for the whole dialog so a press of the
// combination being replaced does not fire its script mid-capture.
func (s *SystrayManager) CaptureHotkey(scriptName string) (string, error) {
	s.SetCapturing(true)
	defer s.SetCapturing(false)

	for {
		combo, err := zenity.Entry(
			fmt.Sprintf("Enter the new hotkey for %q\n(e.g. ctrl+alt+f1, ctrl+shift+a)", scriptName),
			zenity.Title("Macroloom - Set Script Hotkey"),
		)
		if err != nil {
			if errors.Is(err, zenity.ErrCanceled) {
				return "", ErrCaptureCanceled
			}
			return "", fmt.Errorf("hotkey entry dialog: %w", err)
		}

		def, err := hotkey.Parse(combo)
		if err != nil {
			log.Warn().Err(err).Str("input", combo).Msg("rejected hotkey input")
			if zerr := zenity.Error(
				fmt.Sprintf("%q is not a valid hotkey: %v\n\nPlease try again.", combo, err),
				zenity.Title("Macroloom - Invalid Hotkey"),
				zenity.ErrorIcon,
			); zerr != nil && !errors.Is(zerr, zenity.ErrCanceled) {
				return "", zerr
			}
			continue
		}
		return def.String(), nil
	}
}
