package ui

import (
	"github.com/rs/zerolog/log"
)

// Level classifies a notification so it can be logged at the matching
// severity even when desktop notifications are disabled.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// NotificationManager shows desktop notifications across platforms.
type NotificationManager struct {
	useNotifications bool
	appName          string
	embeddedIcon     []byte
}

func NewNotificationManager(useNotifications bool, appName string, embeddedIcon []byte) *NotificationManager {
	return &NotificationManager{
		useNotifications: useNotifications,
		appName:          appName,
		embeddedIcon:     embeddedIcon,
	}
}

// Show displays a desktop notification if enabled, and always logs it.
func (n *NotificationManager) Show(level Level, title, message string) {
	event := log.Info()
	switch level {
	case LevelWarn:
		event = log.Warn()
	case LevelError:
		event = log.Error()
	}
	event.Str("title", title).Msg(message)

	if !n.useNotifications {
		return
	}
	if err := n.platformNotify(title, message); err != nil {
		log.Warn().Err(err).Str("title", title).Msg("desktop notification failed")
	}
}

var globalNotificationManager *NotificationManager

// InitGlobalNotifications wires the process-wide notification manager.
func InitGlobalNotifications(useNotifications bool, appName string, embeddedIcon []byte) {
	globalNotificationManager = NewNotificationManager(useNotifications, appName, embeddedIcon)
}

// Notify shows a notification through the global manager.
func Notify(level Level, title, message string) {
	if globalNotificationManager == nil {
		log.Debug().Str("title", title).Msg(message)
		return
	}
	globalNotificationManager.Show(level, title, message)
}
