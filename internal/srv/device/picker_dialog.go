//go:build cgo

package device

import (
	"github.com/jypelle/vekipad/apimodel"
	"github.com/sirupsen/logrus"
	"github.com/sqweek/dialog"
)

// DialogPicker shows the native file chooser
type DialogPicker struct {
	startDir string
}

func newDialogPicker(startDir string) Picker {
	return &DialogPicker{startDir: startDir}
}

func (p *DialogPicker) PromptForResource(padId apimodel.PadId) (string, bool, error) {
	logrus.Debugf("Prompt resource for pad %d", padId)

	builder := dialog.File().Title(pickerTitle).Filter("Audio Files", audioFileExtensions...)
	if p.startDir != "" {
		builder = builder.SetStartDir(p.startDir)
	}

	path, err := builder.Load()
	if err == dialog.ErrCancelled {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, path != "", nil
}
