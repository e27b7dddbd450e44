//go:build !cgo

package device

import (
	"github.com/sirupsen/logrus"
)

// Native dialogs need cgo: fall back on zenity
func newDialogPicker(startDir string) Picker {
	logrus.Warnf("Native file chooser unavailable, using zenity")
	return &ZenityPicker{startDir: startDir}
}
