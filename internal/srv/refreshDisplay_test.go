package srv

import (
	"image"
	"strings"
	"testing"

	"github.com/jypelle/vekipad/internal/srv/device"
	"github.com/jypelle/vekipad/internal/srv/pad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lit(img *image.RGBA, x, y int) bool {
	return img.RGBAAt(x, y).R == 255
}

func TestPadPitch(t *testing.T) {
	assert.Equal(t, 7, padPitch(9, 9))
	assert.Equal(t, 15, padPitch(4, 3))
	assert.Equal(t, 63, padPitch(1, 1))
	assert.Equal(t, 2, padPitch(100, 100))
}

func TestPadCell(t *testing.T) {
	assert.Equal(t, image.Rect(1, 1, 7, 7), padCell(1, 9, 9))
	assert.Equal(t, image.Rect(57, 1, 63, 7), padCell(9, 9, 9))
	assert.Equal(t, image.Rect(1, 8, 7, 14), padCell(10, 9, 9))
	assert.Equal(t, image.Rect(57, 57, 63, 63), padCell(81, 9, 9))
}

func TestRenderPadScreen(t *testing.T) {
	registry := pad.NewRegistry(81)
	registry.Bind(2, "/music/snare.wav")
	registry.Bind(10, "/music/kick.wav")
	registry.Highlight(10)

	img, scrolling := renderPadScreen(padScreen{
		Pads:    registry.Pads(),
		Rows:    9,
		Columns: 9,
		Playing: true,
		PadId:   10,
		Label:   "kick.wav",
		Volume:  0.5,
	})

	require.Equal(t, image.Rect(0, 0, device.DisplayWidth, device.DisplayHeight), img.Bounds())
	assert.False(t, scrolling)

	// playing pad is filled
	assert.True(t, lit(img, 4, 11))
	// bound pad is outlined
	assert.True(t, lit(img, 8, 1))
	assert.False(t, lit(img, 11, 4))
	// unbound pad is a dot
	assert.True(t, lit(img, 18, 4))
	assert.False(t, lit(img, 15, 1))

	// volume gauge
	assert.True(t, lit(img, 80, 54))
	assert.False(t, lit(img, 120, 54))
	assert.True(t, lit(img, 125, 54))
}

func TestRenderPadScreen_ScrollingLabel(t *testing.T) {
	registry := pad.NewRegistry(4)
	registry.Bind(1, "/music/a very long name for a sound.wav")
	registry.Highlight(1)

	screen := padScreen{
		Pads:    registry.Pads(),
		Rows:    2,
		Columns: 2,
		Playing: true,
		PadId:   1,
		Label:   registry.Pad(1).Label(),
	}
	_, scrolling := renderPadScreen(screen)
	assert.True(t, scrolling)

	screen.Playing = false
	screen.Label = ""
	_, scrolling = renderPadScreen(screen)
	assert.False(t, scrolling)
}

func TestRenderPopUp_Volume(t *testing.T) {
	full := renderPopUp(VOLUME_POPUP, "", 1)
	assert.True(t, lit(full, 110, 44))
	assert.True(t, lit(full, 12, 44))

	mute := renderPopUp(VOLUME_POPUP, "", 0)
	assert.False(t, lit(mute, 20, 44))
	assert.True(t, lit(mute, 12, 44))
}

func TestRenderPopUp_Message(t *testing.T) {
	blank := newScreen()
	img := renderPopUp(UNBOUND_POPUP, "Pad 3 unbound", 0.5)
	assert.NotEqual(t, blank.Pix, img.Pix)

	assert.Equal(t, blank.Pix, renderPopUp(NO_POPUP, "ignored", 0.5).Pix)
}

func TestLabelWidth(t *testing.T) {
	assert.Equal(t, 0, LabelWidth(""))
	assert.Equal(t, 18, LabelWidth("abc"))
	assert.Equal(t, 12, LabelWidth("éè"))
}

func TestAddScrollingLabel(t *testing.T) {
	area := image.Rect(66, 18, 128, 34)

	img := newScreen()
	assert.False(t, AddScrollingLabel(img, area, 12, "short", 0))

	long := strings.Repeat("x", 20)
	first := newScreen()
	assert.True(t, AddScrollingLabel(first, area, 12, long, 0))
	second := newScreen()
	assert.True(t, AddScrollingLabel(second, area, 12, long, 3))
	assert.NotEqual(t, first.Pix, second.Pix)

	// nothing is drawn outside area
	for y := 0; y < area.Min.Y; y++ {
		for x := 0; x < device.DisplayWidth; x++ {
			require.False(t, lit(first, x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestActivationOutcome_String(t *testing.T) {
	assert.Equal(t, "played", PLAYED_ACTIVATION.String())
	assert.Equal(t, "failed", FAILED_ACTIVATION.String())
	assert.Equal(t, "unknown", ActivationOutcome(42).String())
}
