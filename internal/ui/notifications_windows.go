//go:build windows

package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-toast/toast"
	"github.com/rs/zerolog/log"
)

func (n *NotificationManager) platformNotify(title, message string) error {
	var iconPath string

	// An external icon.png wins over the embedded fallback, toast renders
	// PNG at better quality than ICO.
	if _, err := os.Stat("icon.png"); err == nil {
		if wd, err := os.Getwd(); err == nil {
			iconPath = filepath.Join(wd, "icon.png")
		} else {
			iconPath = "icon.png"
		}
	} else if len(n.embeddedIcon) > 0 {
		iconPath, err = writeTempIcon(n.embeddedIcon)
		if err != nil {
			log.Warn().Err(err).Msg("writing temporary notification icon")
			iconPath = ""
		} else {
			time.AfterFunc(10*time.Second, func() {
				if err := os.Remove(iconPath); err != nil && !os.IsNotExist(err) {
					log.Warn().Err(err).Str("path", iconPath).Msg("removing temporary icon")
				}
			})
		}
	}

	notification := toast.Notification{
		AppID:   n.appName,
		Title:   title,
		Message: message,
		Icon:    iconPath,
	}
	return notification.Push()
}

func writeTempIcon(iconData []byte) (string, error) {
	if len(iconData) == 0 {
		return "", fmt.Errorf("no icon data")
	}
	tmpFile, err := os.CreateTemp("", "macroloom-icon-*.ico")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	if _, err := tmpFile.Write(iconData); err != nil {
		_ = os.Remove(tmpFile.Name())
		return "", err
	}

	absPath, err := filepath.Abs(tmpFile.Name())
	if err != nil {
		return tmpFile.Name(), nil
	}
	return absPath, nil
}
