package config

import (
	_ "embed"
	"fmt"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

const (
	PickerDialog = "dialog"
	PickerZenity = "zenity"
	PickerNone   = "none"
)

type ServerParam struct {
	Grid         GridParam     `yaml:"grid"`
	Output       OutputParam   `yaml:"output"`
	Picker       PickerParam   `yaml:"picker"`
	Cache        CacheParam    `yaml:"cache"`
	Gpio         GpioParam     `yaml:"gpio"`
	MifasolParam *MifasolParam `yaml:"mifasol,omitempty"`
	ApiParam     ApiParam      `yaml:"api"`
}

type GridParam struct {
	Rows    int64 `yaml:"rows"`
	Columns int64 `yaml:"columns"`
}

func (g GridParam) PadCount() int64 {
	return g.Rows * g.Columns
}

type OutputParam struct {
	SampleRate      int   `yaml:"sample_rate"`
	BufferMs        int64 `yaml:"buffer_ms"`
	ResampleQuality int   `yaml:"resample_quality"`
}

type PickerParam struct {
	Kind     string `yaml:"kind"`
	StartDir string `yaml:"start_dir"`
}

type CacheParam struct {
	Enabled       bool  `yaml:"enabled"`
	MaxDurationMs int64 `yaml:"max_duration_ms"`
	TtlS          int64 `yaml:"ttl_s"`
}

// GpioParam maps physical buttons (periph pin names, e.g. GPIO16) to pads and control actions
type GpioParam struct {
	Pads       map[int64]string  `yaml:"pads"`
	Stop       string            `yaml:"stop"`
	VolumeUp   string            `yaml:"volume_up"`
	VolumeDown string            `yaml:"volume_down"`
	Commands   map[string]string `yaml:"commands"`
}

func (g GpioParam) IsEmpty() bool {
	return len(g.Pads) == 0 && g.Stop == "" && g.VolumeUp == "" && g.VolumeDown == "" && len(g.Commands) == 0
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

func (p *ServerParam) Validate() error {
	if p.Grid.Rows < 1 || p.Grid.Columns < 1 {
		return fmt.Errorf("grid must have at least one row and one column, got %dx%d", p.Grid.Rows, p.Grid.Columns)
	}
	if p.Output.SampleRate <= 0 {
		return fmt.Errorf("output sample rate must be positive, got %d", p.Output.SampleRate)
	}
	if p.Output.BufferMs <= 0 {
		return fmt.Errorf("output buffer must be positive, got %d ms", p.Output.BufferMs)
	}
	if p.Output.ResampleQuality < 1 || p.Output.ResampleQuality > 64 {
		return fmt.Errorf("resample quality must be between 1 and 64, got %d", p.Output.ResampleQuality)
	}
	switch p.Picker.Kind {
	case PickerDialog, PickerZenity, PickerNone:
	default:
		return fmt.Errorf("unknown picker kind %q", p.Picker.Kind)
	}
	for padId := range p.Gpio.Pads {
		if padId < 1 || padId > p.Grid.PadCount() {
			return fmt.Errorf("gpio pad %d is outside the grid", padId)
		}
	}
	if p.MifasolParam != nil {
		if err := p.MifasolParam.validate(); err != nil {
			return err
		}
	}
	if p.ApiParam.Enabled && p.ApiParam.ApiKey == "" {
		return fmt.Errorf("api is enabled without api key")
	}
	return nil
}
