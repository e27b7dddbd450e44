package device

import (
	"github.com/ncruces/zenity"
	"github.com/sirupsen/logrus"
)

const PlaybackErrorTitle = "Playback Error"

// Notifier reports failures to the user
type Notifier interface {
	NotifyError(title string, message string)
}

func NewNotifier(desktop bool) Notifier {
	if desktop {
		return &ZenityNotifier{}
	}
	return &LogNotifier{}
}

// ZenityNotifier shows an error dialog without blocking the caller
type ZenityNotifier struct{}

func (n *ZenityNotifier) NotifyError(title string, message string) {
	logrus.Warnf("%s: %s", title, message)
	go func() {
		if err := zenity.Error(message, zenity.Title(title), zenity.ErrorIcon); err != nil {
			logrus.Debugf("Unable to show error dialog: %v", err)
		}
	}()
}

type LogNotifier struct{}

func (n *LogNotifier) NotifyError(title string, message string) {
	logrus.Warnf("%s: %s", title, message)
}
