package device

import (
	"errors"
	"fmt"
)

var (
	ErrResourceNotFound  = errors.New("resource not found")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
)

// OpenError reports a resource that could not be opened for playback.
// It is recoverable: the engine stays idle and the user may trigger again.
type OpenError struct {
	Locator string
	Err     error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("unable to play %s: %v", e.Locator, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Reason is a short user-facing description of the failure
func (e *OpenError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrResourceNotFound):
		return "File not found"
	case errors.Is(e.Err, ErrUnsupportedFormat):
		return "Unsupported format"
	case errors.Is(e.Err, ErrDeviceUnavailable):
		return "Device unavailable"
	default:
		return "Unreadable file"
	}
}

// Output opens voices on an audio device
type Output interface {
	// Open decodes locator and prepares a paused voice. On error nothing stays acquired.
	Open(locator string) (Voice, error)
}

// Voice is one playback instance: a device stream and the decoder feeding it.
type Voice interface {
	Id() string
	SetVolume(volume float64)
	Start() error
	Stop()
	// Dispose releases the decoder and the device stream. Calling it twice is harmless.
	Dispose() error
	// Done is closed exactly once, when the stream is exhausted, stopped or disposed.
	Done() <-chan struct{}
}
