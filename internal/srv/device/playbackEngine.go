package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/event"
	"github.com/sirupsen/logrus"
)

const VolumeStep = 0.04

type PlaybackState int

const (
	IDLE_STATE PlaybackState = iota
	PLAYING_STATE
)

func (s PlaybackState) String() string {
	switch s {
	case IDLE_STATE:
		return "idle"
	case PLAYING_STATE:
		return "playing"
	default:
		return "unknown"
	}
}

// PlaybackListener is notified of engine transitions, on the context calling the engine
type PlaybackListener interface {
	OnPlaybackStarted(padId apimodel.PadId)
	// OnPlaybackStopped asks to unhighlight every pad
	OnPlaybackStopped()
}

// VolumeSetting is the process-wide volume in [0,1]
type VolumeSetting interface {
	Volume() float64
	SetVolume(volume float64)
}

// PlaybackEngine plays at most one voice at a time.
//
// Trigger, Stop, SetVolume and HandleEvent must be called from a single control context (the
// server event loop). Voice completions are observed on watcher goroutines and only posted on
// EventChannel: they reach the engine state when the control context hands them to HandleEvent.
type PlaybackEngine struct {
	lock         sync.RWMutex
	eventChannel chan event.PlaybackEvent

	output        Output
	volumeSetting VolumeSetting
	listener      PlaybackListener

	activeVoice Voice
	activePadId apimodel.PadId

	askDone     chan struct{}
	askDoneOnce sync.Once
}

func NewPlaybackEngine(output Output, volumeSetting VolumeSetting, listener PlaybackListener) *PlaybackEngine {
	return &PlaybackEngine{
		eventChannel:  make(chan event.PlaybackEvent, 16),
		output:        output,
		volumeSetting: volumeSetting,
		listener:      listener,
		askDone:       make(chan struct{}),
	}
}

func (d *PlaybackEngine) Start() {
	logrus.Infof("Start playback engine (volume %.2f)", d.volumeSetting.Volume())
}

func (d *PlaybackEngine) EventChannel() chan event.PlaybackEvent {
	return d.eventChannel
}

// StopSendingEvent releases the completion watchers; later completions are dropped
func (d *PlaybackEngine) StopSendingEvent() {
	logrus.Infof("Stop sending events for playback engine")
	d.askDoneOnce.Do(func() { close(d.askDone) })
}

// Shutdown stops the active voice and the completion watchers. No voice handle stays open.
func (d *PlaybackEngine) Shutdown() {
	logrus.Infof("Stop playback engine")
	d.Stop()
	d.StopSendingEvent()
}

func (d *PlaybackEngine) State() PlaybackState {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.activeVoice == nil {
		return IDLE_STATE
	}
	return PLAYING_STATE
}

// CurrentPad returns the pad owning the active voice
func (d *PlaybackEngine) CurrentPad() (apimodel.PadId, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.activePadId, d.activeVoice != nil
}

func (d *PlaybackEngine) Volume() float64 {
	return d.volumeSetting.Volume()
}

// Trigger plays locator for padId, preempting any active voice.
// Open failures are returned as *OpenError and leave the engine idle.
func (d *PlaybackEngine) Trigger(locator string, padId apimodel.PadId) error {
	d.Stop()

	voice, err := d.output.Open(locator)
	if err != nil {
		logrus.Warnf("Unable to open %s for pad %d: %v", locator, padId, err)
		var openErr *OpenError
		if errors.As(err, &openErr) {
			return openErr
		}
		return &OpenError{Locator: locator, Err: err}
	}

	d.lock.Lock()
	voice.SetVolume(d.volumeSetting.Volume())
	if err = voice.Start(); err != nil {
		d.lock.Unlock()
		logrus.Warnf("Unable to start voice %s for pad %d: %v", voice.Id(), padId, err)
		if disposeErr := voice.Dispose(); disposeErr != nil {
			logrus.Errorf("Failed to dispose voice %s: %v", voice.Id(), disposeErr)
		}
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return &OpenError{Locator: locator, Err: err}
	}
	d.activeVoice = voice
	d.activePadId = padId
	d.lock.Unlock()

	logrus.Infof("Playing pad %d: \"%s\" (voice %s)", padId, locator, voice.Id())
	d.listener.OnPlaybackStarted(padId)
	d.watch(voice)

	return nil
}

// Stop halts and releases the active voice. Without active voice it does nothing.
func (d *PlaybackEngine) Stop() {
	if d.release(func(Voice) bool { return true }) {
		d.listener.OnPlaybackStopped()
	}
}

// SetVolume stores volume, clamped to [0,1], and applies it to the active voice.
// It returns the stored value.
func (d *PlaybackEngine) SetVolume(volume float64) float64 {
	volume = ClampVolume(volume)

	d.lock.Lock()
	defer d.lock.Unlock()

	d.volumeSetting.SetVolume(volume)
	if d.activeVoice != nil {
		d.activeVoice.SetVolume(volume)
	}
	logrus.Debugf("Volume set to %.2f", volume)
	return volume
}

func (d *PlaybackEngine) IncreaseVolume() float64 {
	return d.SetVolume(d.volumeSetting.Volume() + VolumeStep)
}

func (d *PlaybackEngine) DecreaseVolume() float64 {
	return d.SetVolume(d.volumeSetting.Volume() - VolumeStep)
}

// HandleEvent applies an event read from EventChannel
func (d *PlaybackEngine) HandleEvent(ev event.PlaybackEvent) {
	switch data := ev.Data.(type) {
	case event.PlaybackEventVoiceEndedData:
		if d.release(func(voice Voice) bool { return voice.Id() == data.VoiceId }) {
			logrus.Debugf("Voice %s reached its end", data.VoiceId)
			d.listener.OnPlaybackStopped()
		} else {
			logrus.Debugf("Ignore end of released voice %s", data.VoiceId)
		}
	}
}

func (d *PlaybackEngine) release(match func(voice Voice) bool) bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.activeVoice == nil || !match(d.activeVoice) {
		return false
	}

	voice := d.activeVoice
	d.activeVoice = nil
	d.activePadId = 0

	voice.Stop()
	if err := voice.Dispose(); err != nil {
		logrus.Errorf("Failed to dispose voice %s: %v", voice.Id(), err)
	}
	logrus.Debugf("Voice %s released", voice.Id())
	return true
}

func (d *PlaybackEngine) watch(voice Voice) {
	go func() {
		select {
		case <-voice.Done():
		case <-d.askDone:
			return
		}
		select {
		case d.eventChannel <- event.PlaybackEvent{Data: event.PlaybackEventVoiceEndedData{VoiceId: voice.Id()}}:
		case <-d.askDone:
		}
	}()
}

func ClampVolume(volume float64) float64 {
	if volume > 1 {
		return 1
	}
	if volume < 0 || volume != volume {
		return 0
	}
	return volume
}
