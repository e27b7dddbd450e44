package srv

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/device"
	"github.com/jypelle/vekipad/internal/srv/event"
	"github.com/jypelle/vekipad/internal/srv/pad"
	"github.com/jypelle/vekipad/internal/version"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

const (
	gridSize   = 63
	panelLeft  = 66
	animPeriod = 100 * time.Millisecond
)

func (s *ServerApp) refreshDisplay(resetMode bool) {
	// Clear animation tick timer
	if s.animationTickTimer != nil {
		s.animationTickTimer.Stop()
		s.animationTickTimer = nil
	}

	if resetMode {
		s.animationTickCount = 0

		s.currentPopUp = NO_POPUP
		if s.popUpHideTimer != nil {
			s.popUpHideTimer.Stop()
			s.popUpHideTimer = nil
		}
	}

	var imgToDisplay image.Image

	if s.currentPopUp != NO_POPUP {
		imgToDisplay = renderPopUp(s.currentPopUp, s.popUpMessage, s.playbackEngine.Volume())
	} else {
		switch s.currentMode {
		case UNDEFINED_MODE:
			img := newScreen()
			AddCenteredLabel(img, 30, version.AppName)
			AddCenteredLabel(img, 50, version.AppVersion.String())
			imgToDisplay = img
		case PAD_MODE:
			img, scrolling := s.renderPads()
			if scrolling {
				s.animationTickTimer = time.AfterFunc(animPeriod, func() {
					s.internalEventChannel <- event.InternalEvent{Data: event.InternalEventAnimationTickData{}}
				})
			}
			imgToDisplay = img
		case END_MODE:
			img := newScreen()
			AddCenteredLabel(img, 40, "See you!")
			imgToDisplay = img
		}
	}
	s.displayDevice.ShowImage(imgToDisplay)
}

func (s *ServerApp) renderPads() (image.Image, bool) {
	logrus.Debugf("Display pads")
	padId, playing := s.playbackEngine.CurrentPad()
	var label string
	if playing {
		label = s.registry.Pad(padId).Label()
	}
	return renderPadScreen(padScreen{
		Pads:       s.registry.Pads(),
		Rows:       int(s.Grid.Rows),
		Columns:    int(s.Grid.Columns),
		Playing:    playing,
		PadId:      padId,
		Label:      label,
		Volume:     s.playbackEngine.Volume(),
		ScrollStep: s.animationTickCount,
	})
}

type padScreen struct {
	Pads       []pad.Pad
	Rows       int
	Columns    int
	Playing    bool
	PadId      apimodel.PadId
	Label      string
	Volume     float64
	ScrollStep int
}

func newScreen() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, device.DisplayWidth, device.DisplayHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{0, 0, 0, 255}}, image.Point{}, draw.Src)
	return img
}

// padPitch is the distance in pixels between two pads of the grid
func padPitch(rows int, columns int) int {
	pitch := gridSize / columns
	if gridSize/rows < pitch {
		pitch = gridSize / rows
	}
	if pitch < 2 {
		pitch = 2
	}
	return pitch
}

// padCell is the area of a pad in the grid, pads being laid out row by row
func padCell(padId apimodel.PadId, rows int, columns int) image.Rectangle {
	pitch := padPitch(rows, columns)
	index := int(padId) - 1
	x := 1 + (index%columns)*pitch
	y := 1 + (index/columns)*pitch
	return image.Rect(x, y, x+pitch-1, y+pitch-1)
}

// renderPadScreen draws the pad grid and the playback panel. It returns true when the label scrolls.
func renderPadScreen(screen padScreen) (*image.RGBA, bool) {
	img := newScreen()

	for _, p := range screen.Pads {
		cell := padCell(p.PadId, screen.Rows, screen.Columns)
		switch {
		case p.State == apimodel.PadStatePlaying:
			FillRect(img, cell)
		case p.Path != "":
			StrokeRect(img, cell)
		default:
			center := image.Pt((cell.Min.X+cell.Max.X)/2, (cell.Min.Y+cell.Max.Y)/2)
			FillRect(img, image.Rectangle{Min: center, Max: center.Add(image.Pt(1, 1))})
		}
	}

	panelWidth := device.DisplayWidth - panelLeft
	scrolling := false
	if screen.Playing {
		AddLabel(img, panelLeft, 12, fmt.Sprintf("Pad %d", screen.PadId))
		scrolling = AddScrollingLabel(img, image.Rect(panelLeft, 18, device.DisplayWidth, 34), 12, screen.Label, screen.ScrollStep)
	} else {
		AddLabel(img, panelLeft, 12, "Ready")
	}

	// Volume gauge
	StrokeRect(img, image.Rect(panelLeft, 50, panelLeft+panelWidth-2, 58))
	FillRect(img, image.Rect(panelLeft+1, 51, panelLeft+1+int(screen.Volume*float64(panelWidth-4)), 57))

	return img, scrolling
}

func renderPopUp(popUp PopUp, message string, volume float64) *image.RGBA {
	img := newScreen()
	switch popUp {
	case VOLUME_POPUP:
		AddCenteredLabel(img, 20, "Volume")
		StrokeRect(img, image.Rect(12, 38, 116, 50))
		FillRect(img, image.Rect(14, 40, 14+int(volume*100), 48))
	case PLAYBACK_ERROR_POPUP:
		AddCenteredLabel(img, 24, "Playback error")
		AddCenteredLabel(img, 44, message)
	case UNBOUND_POPUP, COMMAND_POPUP:
		AddCenteredLabel(img, 36, message)
	}
	return img
}
