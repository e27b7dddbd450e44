package device

import (
	"fmt"
	"sync"

	"github.com/jypelle/vekipad/apimodel"
)

type fakeVoice struct {
	id      string
	volume  float64
	started bool
	stopped bool

	startErr  error
	disposals int

	done     chan struct{}
	doneOnce sync.Once
}

func (v *fakeVoice) Id() string               { return v.id }
func (v *fakeVoice) SetVolume(volume float64) { v.volume = volume }
func (v *fakeVoice) Done() <-chan struct{}    { return v.done }

func (v *fakeVoice) Start() error {
	if v.startErr != nil {
		return v.startErr
	}
	v.started = true
	return nil
}

func (v *fakeVoice) Stop() {
	v.stopped = true
	v.finish()
}

func (v *fakeVoice) Dispose() error {
	v.disposals++
	v.finish()
	return nil
}

// finish simulates the end of the stream
func (v *fakeVoice) finish() {
	v.doneOnce.Do(func() { close(v.done) })
}

// fakeOutput opens fake voices, failing for locators listed in failures
type fakeOutput struct {
	lock     sync.Mutex
	voices   []*fakeVoice
	failures map[string]error
	startErr error
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{failures: make(map[string]error)}
}

func (o *fakeOutput) Open(locator string) (Voice, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if err, ok := o.failures[locator]; ok {
		return nil, &OpenError{Locator: locator, Err: err}
	}
	voice := &fakeVoice{
		id:       fmt.Sprintf("voice-%d", len(o.voices)+1),
		startErr: o.startErr,
		done:     make(chan struct{}),
	}
	o.voices = append(o.voices, voice)
	return voice, nil
}

func (o *fakeOutput) last() *fakeVoice {
	o.lock.Lock()
	defer o.lock.Unlock()
	if len(o.voices) == 0 {
		return nil
	}
	return o.voices[len(o.voices)-1]
}

// openHandles counts voices opened and not yet disposed
func (o *fakeOutput) openHandles() int {
	o.lock.Lock()
	defer o.lock.Unlock()
	count := 0
	for _, voice := range o.voices {
		if voice.disposals == 0 {
			count++
		}
	}
	return count
}

type fakeVolumeSetting struct {
	volume float64
}

func (s *fakeVolumeSetting) Volume() float64          { return s.volume }
func (s *fakeVolumeSetting) SetVolume(volume float64) { s.volume = volume }

type recordingListener struct {
	events []string
}

func (l *recordingListener) OnPlaybackStarted(padId apimodel.PadId) {
	l.events = append(l.events, fmt.Sprintf("started:%d", padId))
}

func (l *recordingListener) OnPlaybackStopped() {
	l.events = append(l.events, "stopped")
}
