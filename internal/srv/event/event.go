package event

import (
	"github.com/jypelle/vekipad/apimodel"
)

// Internal
type InternalEvent struct {
	Data interface{}
}

type InternalEventPopupHideData struct{}
type InternalEventAnimationTickData struct{}

// Playback
type PlaybackEvent struct {
	Data interface{}
}

// PlaybackEventVoiceEndedData is posted when a voice reached end of stream or was stopped
type PlaybackEventVoiceEndedData struct {
	VoiceId string
}

// Commands without playback effect, kept for the perform/edit/options modes and the effect knobs
type Command string

const (
	PERFORM_MODE_COMMAND  Command = "perform"
	EDIT_MODE_COMMAND     Command = "edit"
	OPTIONS_MODE_COMMAND  Command = "options"
	REVERB_EFFECT_COMMAND Command = "reverb"
	DELAY_EFFECT_COMMAND  Command = "delay"
	PITCH_EFFECT_COMMAND  Command = "pitch"
)

var Commands = []Command{
	PERFORM_MODE_COMMAND,
	EDIT_MODE_COMMAND,
	OPTIONS_MODE_COMMAND,
	REVERB_EFFECT_COMMAND,
	DELAY_EFFECT_COMMAND,
	PITCH_EFFECT_COMMAND,
}

func ParseCommand(name string) (Command, bool) {
	for _, command := range Commands {
		if string(command) == name {
			return command, true
		}
	}
	return "", false
}

// Title is the text shown to the user when the command is received
func (c Command) Title() string {
	switch c {
	case PERFORM_MODE_COMMAND:
		return "Perform mode"
	case EDIT_MODE_COMMAND:
		return "Edit mode"
	case OPTIONS_MODE_COMMAND:
		return "Options"
	case REVERB_EFFECT_COMMAND:
		return "Reverb"
	case DELAY_EFFECT_COMMAND:
		return "Delay"
	case PITCH_EFFECT_COMMAND:
		return "Pitch shift"
	default:
		return string(c)
	}
}

// Buttons
type ButtonAction int

const (
	PAD_BUTTON ButtonAction = iota
	STOP_BUTTON
	VOLUME_UP_BUTTON
	VOLUME_DOWN_BUTTON
	COMMAND_BUTTON
)

type ButtonEventType int

const (
	PRESS_EVENT_TYPE ButtonEventType = iota
	RELEASE_EVENT_TYPE
)

type ButtonEvent struct {
	Action          ButtonAction
	PadId           apimodel.PadId
	Command         Command
	ButtonEventType ButtonEventType
	PressStepCount  int64
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type ApiEventPadActivateData struct {
	PadId apimodel.PadId
}

type ApiEventPadBindData struct {
	PadId apimodel.PadId
	Path  string
}

type ApiEventPlaybackStopData struct{}

type ApiEventAudioVolumeData struct {
	Volume float64
}

type ApiEventCommandData struct {
	Command Command
}

type ApiEventDisplaySwitchData struct{}
