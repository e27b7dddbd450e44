package apimodel

import "strconv"

// PadId identifies a pad of the grid, from 1 to the pad count
type PadId int64

func (p PadId) String() string {
	return strconv.FormatInt(int64(p), 10)
}

type PadState string

const (
	PadStateIdle    PadState = "idle"
	PadStatePlaying PadState = "playing"
)

type Pad struct {
	PadId PadId    `json:"id"`
	Path  string   `json:"path,omitempty"`
	Label string   `json:"label"`
	State PadState `json:"state"`
}

type PadBinding struct {
	Path string `json:"path"`
}

type Playback struct {
	State  PadState `json:"state"`
	PadId  *PadId   `json:"pad_id,omitempty"`
	Volume float64  `json:"volume"`
}

type Display struct {
	On bool `json:"on"`
}
