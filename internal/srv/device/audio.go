package device

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/sirupsen/logrus"
)

type ResourceOpener interface {
	Resolve(locator string) (*Resource, error)
}

// streamSource turns a locator into a streamer at the output sample rate
type streamSource struct {
	resolver        ResourceOpener
	decoder         *Decoder
	sampleCache     *SampleCache
	sampleRate      beep.SampleRate
	resampleQuality int
}

func newStreamSource(outputParam config.OutputParam, resolver ResourceOpener, sampleCache *SampleCache) *streamSource {
	sampleRate := beep.SampleRate(outputParam.SampleRate)
	return &streamSource{
		resolver:        resolver,
		decoder:         NewDecoder(sampleRate),
		sampleCache:     sampleCache,
		sampleRate:      sampleRate,
		resampleQuality: outputParam.ResampleQuality,
	}
}

func (s *streamSource) open(locator string) (beep.StreamCloser, error) {
	resource, err := s.resolver.Resolve(locator)
	if err != nil {
		return nil, &OpenError{Locator: locator, Err: err}
	}

	streamer, format, found := s.sampleCache.Get(resource.CacheKey)
	if found {
		resource.Content.Close()
		logrus.Debugf("Sound %s found in cache", locator)
	} else {
		streamer, format, err = s.decoder.Decode(resource.Content, resource.Name)
		if err != nil {
			return nil, &OpenError{Locator: locator, Err: err}
		}
		streamer, err = s.sampleCache.Load(resource.CacheKey, streamer, format)
		if err != nil {
			return nil, &OpenError{Locator: locator, Err: err}
		}
	}

	if format.SampleRate != s.sampleRate {
		logrus.Debugf("Resample %s from %d Hz to %d Hz", locator, format.SampleRate, s.sampleRate)
		streamer = resampledStreamer{
			Streamer: beep.Resample(s.resampleQuality, format.SampleRate, s.sampleRate, streamer),
			source:   streamer,
		}
	}
	return streamer, nil
}

type resampledStreamer struct {
	beep.Streamer
	source beep.StreamCloser
}

func (r resampledStreamer) Close() error {
	return r.source.Close()
}

// SpeakerOutput plays voices on the default audio device
type SpeakerOutput struct {
	lock       sync.RWMutex
	source     *streamSource
	bufferSize int
	started    bool
}

func NewSpeakerOutput(outputParam config.OutputParam, resolver ResourceOpener, sampleCache *SampleCache) *SpeakerOutput {
	source := newStreamSource(outputParam, resolver, sampleCache)
	return &SpeakerOutput{
		source:     source,
		bufferSize: source.sampleRate.N(time.Duration(outputParam.BufferMs) * time.Millisecond),
	}
}

func (o *SpeakerOutput) Start() error {
	logrus.Infof("Start audio device (%d Hz, %d samples buffer)", o.source.sampleRate, o.bufferSize)

	o.lock.Lock()
	defer o.lock.Unlock()

	if err := speaker.Init(o.source.sampleRate, o.bufferSize); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	o.started = true
	return nil
}

func (o *SpeakerOutput) Stop() {
	logrus.Infof("Stop audio device")

	o.lock.Lock()
	defer o.lock.Unlock()

	if o.started {
		speaker.Clear()
		speaker.Close()
		o.started = false
	}
}

func (o *SpeakerOutput) Open(locator string) (Voice, error) {
	o.lock.RLock()
	started := o.started
	o.lock.RUnlock()
	if !started {
		return nil, &OpenError{Locator: locator, Err: ErrDeviceUnavailable}
	}

	streamer, err := o.source.open(locator)
	if err != nil {
		return nil, err
	}
	return newSpeakerVoice(streamer), nil
}

type speakerVoice struct {
	id       string
	streamer beep.StreamCloser
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	done        chan struct{}
	doneOnce    sync.Once
	disposeOnce sync.Once
	disposeErr  error
}

func newSpeakerVoice(streamer beep.StreamCloser) *speakerVoice {
	ctrl := &beep.Ctrl{Streamer: streamer, Paused: true}
	return &speakerVoice{
		id:       uuid.New().String(),
		streamer: streamer,
		ctrl:     ctrl,
		volume:   &effects.Volume{Streamer: ctrl, Base: 2},
		done:     make(chan struct{}),
	}
}

func (v *speakerVoice) Id() string {
	return v.id
}

func (v *speakerVoice) Done() <-chan struct{} {
	return v.done
}

func (v *speakerVoice) SetVolume(volume float64) {
	speaker.Lock()
	defer speaker.Unlock()
	applyVolume(v.volume, volume)
}

func (v *speakerVoice) Start() error {
	select {
	case <-v.done:
		return fmt.Errorf("voice %s already released", v.id)
	default:
	}

	speaker.Lock()
	v.ctrl.Paused = false
	speaker.Unlock()

	// finish runs on the speaker goroutine, with the speaker lock held
	speaker.Play(beep.Seq(v.volume, beep.Callback(v.finish)))
	return nil
}

func (v *speakerVoice) Stop() {
	speaker.Lock()
	v.ctrl.Streamer = nil
	speaker.Unlock()
	v.finish()
}

func (v *speakerVoice) Dispose() error {
	v.disposeOnce.Do(func() {
		v.Stop()
		v.disposeErr = v.streamer.Close()
	})
	return v.disposeErr
}

func (v *speakerVoice) finish() {
	v.doneOnce.Do(func() { close(v.done) })
}

// applyVolume maps a linear volume in [0,1] to a beep volume effect
func applyVolume(effect *effects.Volume, volume float64) {
	volume = ClampVolume(volume)
	effect.Silent = volume == 0
	if volume > 0 {
		effect.Volume = math.Log2(volume)
	}
}
