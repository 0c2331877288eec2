//go:build windows

package ui

import (
	"fmt"
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

const swShowNormal = 1

var (
	shell32           = windows.NewLazySystemDLL("shell32.dll")
	procShellExecuteW = shell32.NewProc("ShellExecuteW")
)

// OpenFileInDefaultApp opens a file with its associated application via
// ShellExecuteW.
func OpenFileInDefaultApp(filePath string) error {
	log.Debug().Str("path", filePath).Msg("opening file via ShellExecuteW")
	return shellExecute(0, "open", filePath, swShowNormal)
}

func shellExecute(hwnd uintptr, verb, file string, showCmd int32) error {
	lpVerb, err := windows.UTF16PtrFromString(verb)
	if err != nil {
		return fmt.Errorf("converting verb: %w", err)
	}
	lpFile, err := windows.UTF16PtrFromString(file)
	if err != nil {
		return fmt.Errorf("converting file path: %w", err)
	}

	ret, _, _ := procShellExecuteW.Call(
		hwnd,
		uintptr(unsafe.Pointer(lpVerb)),
		uintptr(unsafe.Pointer(lpFile)),
		0,
		0,
		uintptr(showCmd),
	)

	// Return values above 32 signal success.
	if ret <= 32 {
		return fmt.Errorf("ShellExecuteW failed with return code %d", ret)
	}
	return nil
}
