// Package resources holds embedded static assets.
package resources

import (
	_ "embed"
	"errors"
)

// ErrIconNotFound reports missing embedded icon data.
var ErrIconNotFound = errors.New("embedded icon not found")

//go:embed icon.ico
var iconData []byte

// GetIcon returns the bytes of the embedded tray icon.
func GetIcon() ([]byte, error) {
	if len(iconData) == 0 {
		return nil, ErrIconNotFound
	}
	return iconData, nil
}
