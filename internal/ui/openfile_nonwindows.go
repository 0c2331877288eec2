//go:build !windows

package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog/log"
)

// OpenFileInDefaultApp hands a file to the desktop's default handler.
func OpenFileInDefaultApp(filePath string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", filePath)
	default:
		cmd = exec.Command("xdg-open", filePath)
	}

	log.Debug().Str("path", filePath).Str("cmd", cmd.Path).Msg("opening file in default app")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", cmd.String(), err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
