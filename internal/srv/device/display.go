package device

import (
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

const (
	DisplayWidth  = 128
	DisplayHeight = 64
)

// SimulationWindow shows the screen content on a desktop
type SimulationWindow interface {
	Invalidate()
	Close()
}

// SimulationWindowFactory opens a window rendering the image returned by render on each frame
type SimulationWindowFactory func(width int, height int, render func() image.Image) SimulationWindow

var simulationWindowFactory SimulationWindowFactory

// RegisterSimulationWindow is called by the window implementation from its init function
func RegisterSimulationWindow(factory SimulationWindowFactory) {
	simulationWindowFactory = factory
}

type Display struct {
	oledLock    sync.Mutex
	oledDisplay *ssd1306.Dev
	i2cBus      i2c.BusCloser

	lock           sync.RWMutex
	on             bool
	simulationMode bool
	lastImg        image.Image

	simulationWindow SimulationWindow

	askDone chan bool
	askImg  chan image.Image
	done    chan bool
}

func NewDisplay(simulationMode bool) *Display {
	device := Display{
		simulationMode: simulationMode,
		askDone:        make(chan bool),
		askImg:         make(chan image.Image),
		done:           make(chan bool),
	}

	return &device
}

func (d *Display) Start() {
	logrus.Infof("Start display device")

	d.lock.Lock()
	d.on = true
	d.lock.Unlock()

	if d.simulationMode {
		d.startSimulation()
		return
	}

	if _, err := host.Init(); err != nil {
		logrus.Fatalf("Unable to initialize host drivers: %v", err)
	}

	var err error
	d.i2cBus, err = i2creg.Open("")
	if err != nil {
		logrus.Fatalf("Unable to open i2c bus: %v", err)
	}

	d.oledDisplay, err = ssd1306.NewI2C(d.i2cBus, &ssd1306.Opts{W: DisplayWidth, H: DisplayHeight, Rotated: false, Sequential: false, SwapTopBottom: false})
	if err != nil {
		logrus.Fatalf("Unable to initialize oled display: %v", err)
	}
	d.oledDisplay.SetContrast(1)

	go func() {
		for loop := true; loop; {
			select {
			case <-d.askDone:
				loop = false
			case newImg := <-d.askImg:
				d.oledLock.Lock()
				if err := d.oledDisplay.Draw(d.oledDisplay.Bounds(), newImg, image.Point{}); err != nil {
					logrus.Debugf("Unable to draw on oled display: %v", err)
				}
				d.oledLock.Unlock()
			}
		}
		d.oledLock.Lock()
		if err := d.oledDisplay.Halt(); err != nil {
			logrus.Debugf("Unable to halt oled display: %v", err)
		}
		d.i2cBus.Close()
		d.oledLock.Unlock()
		d.done <- true
	}()
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	if d.simulationMode {
		d.closeSimulationWindow()
	} else {
		d.askDone <- true
		<-d.done
	}
}

// Switch turns the screen off or back on and returns the new state
func (d *Display) Switch() bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.on = !d.on
	switch {
	case d.simulationMode:
		d.invalidateSimulationWindow()
	case d.on:
		d.oledLock.Lock()
		d.oledDisplay.SetContrast(1) // Draw alone doesn't wake the screen up
		d.oledLock.Unlock()
		if d.lastImg != nil {
			d.askImg <- d.lastImg
		}
	default:
		d.oledLock.Lock()
		d.oledDisplay.Halt()
		d.oledLock.Unlock()
	}

	return d.on
}

func (d *Display) IsOn() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.on
}

func (d *Display) LastImage() image.Image {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.lastImg
}

func (d *Display) ShowImage(img image.Image) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.lastImg = img
	if d.on {
		if d.simulationMode {
			d.invalidateSimulationWindow()
		} else {
			d.askImg <- img
		}
	}
}

func (d *Display) startSimulation() {
	if simulationWindowFactory == nil {
		logrus.Warnf("No simulation window available")
		return
	}
	blank := image.NewGray(image.Rect(0, 0, DisplayWidth, DisplayHeight))
	d.simulationWindow = simulationWindowFactory(DisplayWidth, DisplayHeight, func() image.Image {
		d.lock.RLock()
		defer d.lock.RUnlock()
		if d.on && d.lastImg != nil {
			return d.lastImg
		}
		return blank
	})
}

func (d *Display) invalidateSimulationWindow() {
	if d.simulationWindow != nil {
		d.simulationWindow.Invalidate()
	}
}

func (d *Display) closeSimulationWindow() {
	if d.simulationWindow != nil {
		d.simulationWindow.Close()
	}
}
