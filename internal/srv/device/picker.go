package device

import (
	"os"
	"path/filepath"

	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/ncruces/zenity"
	"github.com/sirupsen/logrus"
)

const pickerTitle = "Select Sound File"

var audioFileExtensions = []string{"wav", "mp3", "aiff", "flac", "ogg"}

// Picker asks the user for the audio resource of a pad
type Picker interface {
	// PromptForResource returns false when the user cancelled or no prompt is possible
	PromptForResource(padId apimodel.PadId) (string, bool, error)
}

func NewPicker(pickerParam config.PickerParam) Picker {
	startDir := pickerParam.StartDir
	if startDir == "" {
		startDir = defaultStartDir()
	}

	switch pickerParam.Kind {
	case config.PickerDialog:
		return newDialogPicker(startDir)
	case config.PickerZenity:
		return &ZenityPicker{startDir: startDir}
	default:
		return &NonePicker{}
	}
}

func defaultStartDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	musicDir := filepath.Join(homeDir, "Music")
	if info, err := os.Stat(musicDir); err == nil && info.IsDir() {
		return musicDir
	}
	return homeDir
}

// ZenityPicker shows the zenity file selection
type ZenityPicker struct {
	startDir string
}

func (p *ZenityPicker) PromptForResource(padId apimodel.PadId) (string, bool, error) {
	logrus.Debugf("Prompt resource for pad %d", padId)

	patterns := make([]string, len(audioFileExtensions))
	for i, extension := range audioFileExtensions {
		patterns[i] = "*." + extension
	}

	options := []zenity.Option{
		zenity.Title(pickerTitle),
		zenity.FileFilters{{Name: "Audio Files", Patterns: patterns, CaseFold: true}},
	}
	if p.startDir != "" {
		options = append(options, zenity.Filename(p.startDir+string(os.PathSeparator)))
	}

	path, err := zenity.SelectFile(options...)
	if err == zenity.ErrCanceled {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, path != "", nil
}

// NonePicker is used without desktop: pads are bound through the api only
type NonePicker struct{}

func (p *NonePicker) PromptForResource(padId apimodel.PadId) (string, bool, error) {
	logrus.Warnf("No file picker available, bind pad %d through the api", padId)
	return "", false, nil
}
