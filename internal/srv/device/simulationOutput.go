package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/sirupsen/logrus"
)

const simulationTick = 100 * time.Millisecond

// SimulationOutput decodes voices in real time without audio device
type SimulationOutput struct {
	source *streamSource
	tick   time.Duration
}

func NewSimulationOutput(outputParam config.OutputParam, resolver ResourceOpener, sampleCache *SampleCache) *SimulationOutput {
	return &SimulationOutput{
		source: newStreamSource(outputParam, resolver, sampleCache),
		tick:   simulationTick,
	}
}

func (o *SimulationOutput) Start() error {
	logrus.Infof("Start simulated audio device (%d Hz)", o.source.sampleRate)
	return nil
}

func (o *SimulationOutput) Stop() {
	logrus.Infof("Stop simulated audio device")
}

func (o *SimulationOutput) Open(locator string) (Voice, error) {
	streamer, err := o.source.open(locator)
	if err != nil {
		return nil, err
	}
	return &simulationVoice{
		id:         uuid.New().String(),
		streamer:   streamer,
		chunk:      make([][2]float64, o.source.sampleRate.N(o.tick)),
		tick:       o.tick,
		sampleRate: o.source.sampleRate,
		done:       make(chan struct{}),
	}, nil
}

type simulationVoice struct {
	lock       sync.Mutex
	id         string
	streamer   beep.StreamCloser
	chunk      [][2]float64
	tick       time.Duration
	sampleRate beep.SampleRate
	volume     float64
	started    bool
	stopped    bool
	played     int

	done        chan struct{}
	doneOnce    sync.Once
	disposeOnce sync.Once
	disposeErr  error
}

func (v *simulationVoice) Id() string {
	return v.id
}

func (v *simulationVoice) Done() <-chan struct{} {
	return v.done
}

func (v *simulationVoice) SetVolume(volume float64) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.volume = ClampVolume(volume)
}

func (v *simulationVoice) Start() error {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.stopped {
		return fmt.Errorf("voice %s already released", v.id)
	}
	if v.started {
		return nil
	}
	v.started = true

	go v.play()
	return nil
}

func (v *simulationVoice) play() {
	ticker := time.NewTicker(v.tick)
	defer ticker.Stop()
	defer v.finish()

	for {
		select {
		case <-v.done:
			return
		case <-ticker.C:
		}
		if !v.streamChunk() {
			logrus.Debugf("Simulated voice %s ended after %v", v.id, v.sampleRate.D(v.played))
			return
		}
	}
}

func (v *simulationVoice) streamChunk() bool {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.stopped {
		return false
	}
	n, ok := v.streamer.Stream(v.chunk)
	v.played += n
	if err := v.streamer.Err(); err != nil {
		logrus.Warnf("Simulated voice %s failed: %v", v.id, err)
		return false
	}
	return ok && n == len(v.chunk)
}

func (v *simulationVoice) Stop() {
	v.lock.Lock()
	v.stopped = true
	v.lock.Unlock()
	v.finish()
}

func (v *simulationVoice) Dispose() error {
	v.disposeOnce.Do(func() {
		v.Stop()
		v.lock.Lock()
		defer v.lock.Unlock()
		v.disposeErr = v.streamer.Close()
	})
	return v.disposeErr
}

func (v *simulationVoice) finish() {
	v.doneOnce.Do(func() { close(v.done) })
}
