// Package simwindow shows the display of the simulation mode in a desktop window.
// It registers itself on import.
package simwindow

import (
	"image"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/jypelle/vekipad/internal/srv/device"
	"github.com/jypelle/vekipad/internal/version"
	"github.com/sirupsen/logrus"
)

func init() {
	device.RegisterSimulationWindow(Open)
}

type Window struct {
	window *app.Window
	render func() image.Image
}

func Open(width int, height int, render func() image.Image) device.SimulationWindow {
	w := &Window{
		window: app.NewWindow(
			app.Title(version.AppName),
			app.Size(unit.Px(float32(4*width)), unit.Px(float32(4*height))),
			app.MinSize(unit.Px(float32(width)), unit.Px(float32(height))),
		),
		render: render,
	}
	go func() {
		if err := w.loop(); err != nil {
			logrus.Fatalf("Simulation window failed: %v", err)
		}
	}()
	go app.Main()
	return w
}

func (w *Window) Invalidate() {
	w.window.Invalidate()
}

func (w *Window) Close() {
	w.window.Close()
}

func (w *Window) loop() error {
	var ops op.Ops
	for {
		e := <-w.window.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)
			img := widget.Image{Src: paint.NewImageOp(w.render()), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
