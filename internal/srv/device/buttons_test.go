package device

import (
	"testing"
	"time"

	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/jypelle/vekipad/internal/srv/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButtonMappings(t *testing.T) {
	mappings := ButtonMappings(config.GpioParam{
		Pads:       map[int64]string{1: "GPIO16", 2: "GPIO13"},
		Stop:       "GPIO24",
		VolumeUp:   "GPIO4",
		VolumeDown: "GPIO17",
		Commands:   map[string]string{"reverb": "GPIO22", "unknown": "GPIO27"},
	})

	assert.Equal(t, []ButtonMapping{
		{PinName: "GPIO13", Action: event.PAD_BUTTON, PadId: 2},
		{PinName: "GPIO16", Action: event.PAD_BUTTON, PadId: 1},
		{PinName: "GPIO17", Action: event.VOLUME_DOWN_BUTTON},
		{PinName: "GPIO22", Action: event.COMMAND_BUTTON, Command: event.REVERB_EFFECT_COMMAND},
		{PinName: "GPIO24", Action: event.STOP_BUTTON},
		{PinName: "GPIO4", Action: event.VOLUME_UP_BUTTON},
	}, mappings)
}

func TestButton_PressAndRelease(t *testing.T) {
	button := &Button{mapping: ButtonMapping{PinName: "GPIO16", Action: event.PAD_BUTTON, PadId: 5}}
	events := make(chan event.ButtonEvent, 10)
	start := time.Now()

	button.update(true, start, events)
	button.update(true, start.Add(50*time.Millisecond), events)
	button.update(true, start.Add(200*time.Millisecond), events)
	button.update(false, start.Add(250*time.Millisecond), events)
	button.update(false, start.Add(300*time.Millisecond), events)
	close(events)

	var received []event.ButtonEvent
	for ev := range events {
		received = append(received, ev)
	}
	require.Len(t, received, 3)
	assert.Equal(t, event.PRESS_EVENT_TYPE, received[0].ButtonEventType)
	assert.Equal(t, int64(1), received[0].PressStepCount)
	assert.Equal(t, apimodel.PadId(5), received[0].PadId)
	assert.Equal(t, int64(2), received[1].PressStepCount)
	assert.Equal(t, event.RELEASE_EVENT_TYPE, received[2].ButtonEventType)
	assert.Equal(t, int64(2), received[2].PressStepCount)
}
