package device

import (
	"sort"
	"sync"
	"time"

	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/jypelle/vekipad/internal/srv/event"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	buttonCheckPeriod  = 5 * time.Millisecond
	buttonRepeatPeriod = 160 * time.Millisecond
)

// ButtonMapping is the action sent by one physical button
type ButtonMapping struct {
	PinName string
	Action  event.ButtonAction
	PadId   apimodel.PadId
	Command event.Command
}

// ButtonMappings lists the buttons declared in the gpio parameters, sorted by pin name
func ButtonMappings(gpioParam config.GpioParam) []ButtonMapping {
	var mappings []ButtonMapping
	for padId, pinName := range gpioParam.Pads {
		mappings = append(mappings, ButtonMapping{PinName: pinName, Action: event.PAD_BUTTON, PadId: apimodel.PadId(padId)})
	}
	if gpioParam.Stop != "" {
		mappings = append(mappings, ButtonMapping{PinName: gpioParam.Stop, Action: event.STOP_BUTTON})
	}
	if gpioParam.VolumeUp != "" {
		mappings = append(mappings, ButtonMapping{PinName: gpioParam.VolumeUp, Action: event.VOLUME_UP_BUTTON})
	}
	if gpioParam.VolumeDown != "" {
		mappings = append(mappings, ButtonMapping{PinName: gpioParam.VolumeDown, Action: event.VOLUME_DOWN_BUTTON})
	}
	for name, pinName := range gpioParam.Commands {
		command, ok := event.ParseCommand(name)
		if !ok {
			logrus.Warnf("Ignore gpio button %s: unknown command %s", pinName, name)
			continue
		}
		mappings = append(mappings, ButtonMapping{PinName: pinName, Action: event.COMMAND_BUTTON, Command: command})
	}

	sort.Slice(mappings, func(i, j int) bool { return mappings[i].PinName < mappings[j].PinName })
	return mappings
}

type Button struct {
	mapping        ButtonMapping
	pin            gpio.PinIO
	isPressed      bool
	pressStepCount int64
	lastChange     time.Time
}

func NewButton(mapping ButtonMapping) *Button {
	button := Button{mapping: mapping, pin: gpioreg.ByName(mapping.PinName)}

	if button.pin == nil {
		logrus.Fatalf("Failed to find %s button", mapping.PinName)
	}

	// Input with internal pull up resistor: pressed reads low
	if err := button.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		logrus.Fatalf("Failed to setup %s button: %v", mapping.PinName, err)
	}
	return &button
}

func (b *Button) Refresh(buttonEventChannel chan event.ButtonEvent) {
	b.update(bool(!b.pin.Read()), time.Now(), buttonEventChannel)
}

// update emits a press event every buttonRepeatPeriod while pressed, and a release event
func (b *Button) update(isPressed bool, now time.Time, buttonEventChannel chan event.ButtonEvent) {
	wasPressed := b.isPressed
	b.isPressed = isPressed

	if !b.isPressed && wasPressed {
		b.lastChange = now
		buttonEventChannel <- b.event(event.RELEASE_EVENT_TYPE)
		b.pressStepCount = 0
	} else if b.isPressed && b.lastChange.Add(buttonRepeatPeriod).Before(now) {
		b.lastChange = now
		b.pressStepCount++
		buttonEventChannel <- b.event(event.PRESS_EVENT_TYPE)
	}
}

func (b *Button) event(eventType event.ButtonEventType) event.ButtonEvent {
	return event.ButtonEvent{
		Action:          b.mapping.Action,
		PadId:           b.mapping.PadId,
		Command:         b.mapping.Command,
		ButtonEventType: eventType,
		PressStepCount:  b.pressStepCount,
	}
}

type Buttons struct {
	lock         sync.RWMutex
	eventChannel chan event.ButtonEvent
	simulation   bool
	mappings     []ButtonMapping

	buttons []*Button

	checkTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

func NewButtons(gpioParam config.GpioParam, simulation bool) *Buttons {
	device := Buttons{
		eventChannel: make(chan event.ButtonEvent),
		simulation:   simulation,
		mappings:     ButtonMappings(gpioParam),
		askDone:      make(chan bool),
		done:         make(chan bool),
	}

	return &device
}

func (d *Buttons) Start() {
	logrus.Infof("Start buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.simulation && len(d.mappings) > 0 {
		if _, err := host.Init(); err != nil {
			logrus.Fatalf("Unable to initialize gpio: %v", err)
		}
		for _, mapping := range d.mappings {
			d.buttons = append(d.buttons, NewButton(mapping))
			logrus.Debugf("Button %s mapped", mapping.PinName)
		}
	}

	d.checkTicker = time.NewTicker(buttonCheckPeriod)
	go func() {
		for loop := true; loop; {
			select {
			case <-d.checkTicker.C:
				for _, button := range d.buttons {
					button.Refresh(d.eventChannel)
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Buttons) StopSendingEvent() {
	logrus.Infof("Stop buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.checkTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Buttons) EventChannel() chan event.ButtonEvent {
	return d.eventChannel
}
