package srv

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const glyphWidth = 6

var col = color.RGBA{255, 255, 255, 255}
var uniformImage = image.NewUniform(col)

func AddLabel(img draw.Image, x, y int, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  uniformImage,
		Face: bitmapfont.Face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func AddCenteredLabel(img draw.Image, y int, label string) {
	AddLabel(img, img.Bounds().Min.X+(img.Bounds().Dx()-LabelWidth(label))/2, y, label)
}

// AddScrollingLabel draws label inside area, scrolling it by step pixels when it doesn't fit.
// It returns true when the label is scrolling.
func AddScrollingLabel(img draw.Image, area image.Rectangle, baseline int, label string, step int) bool {
	clip := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	width := LabelWidth(label)
	scrolling := width > area.Dx()
	if scrolling {
		deltaX := step % (width + 20)
		AddLabel(clip, -deltaX, baseline, label)
		AddLabel(clip, width+20-deltaX, baseline, label)
	} else {
		AddLabel(clip, 0, baseline, label)
	}
	draw.Draw(img, area, clip, image.Point{}, draw.Over)
	return scrolling
}

func LabelWidth(label string) int {
	return len([]rune(label)) * glyphWidth
}

func FillRect(img draw.Image, r image.Rectangle) {
	draw.Draw(img, r, uniformImage, image.Point{}, draw.Src)
}

// StrokeRect draws the one pixel border of r
func StrokeRect(img draw.Image, r image.Rectangle) {
	FillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1))
	FillRect(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y))
	FillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y))
	FillRect(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y))
}
