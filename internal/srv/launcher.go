package srv

import (
	"errors"
	"fmt"

	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/device"
	"github.com/jypelle/vekipad/internal/srv/pad"
	"github.com/sirupsen/logrus"
)

type ActivationOutcome int

const (
	PLAYED_ACTIVATION ActivationOutcome = iota
	BOUND_ACTIVATION
	UNBOUND_ACTIVATION
	FAILED_ACTIVATION
)

func (o ActivationOutcome) String() string {
	switch o {
	case PLAYED_ACTIVATION:
		return "played"
	case BOUND_ACTIVATION:
		return "bound"
	case UNBOUND_ACTIVATION:
		return "unbound"
	case FAILED_ACTIVATION:
		return "failed"
	default:
		return "unknown"
	}
}

type PadPlayer interface {
	Trigger(locator string, padId apimodel.PadId) error
}

// Launcher turns a pad activation into either a playback or a binding prompt
type Launcher struct {
	registry *pad.Registry
	player   PadPlayer
	picker   device.Picker
	notifier device.Notifier
	exists   func(locator string) bool
}

func NewLauncher(registry *pad.Registry, player PadPlayer, picker device.Picker, notifier device.Notifier, exists func(locator string) bool) *Launcher {
	return &Launcher{
		registry: registry,
		player:   player,
		picker:   picker,
		notifier: notifier,
		exists:   exists,
	}
}

// Activate plays the pad resource. An unbound pad, or a pad whose local file disappeared, asks for a
// new resource instead, without playing it. padId must belong to the registry.
func (l *Launcher) Activate(padId apimodel.PadId) (ActivationOutcome, error) {
	locator, bound := l.registry.LookupBinding(padId)
	if !bound || !l.exists(locator) {
		if bound {
			logrus.Infof("Resource of pad %d is gone: %s", padId, locator)
		}
		return l.prompt(padId)
	}

	err := l.player.Trigger(locator, padId)
	if err != nil {
		reason := err.Error()
		var openErr *device.OpenError
		if errors.As(err, &openErr) {
			reason = fmt.Sprintf("%s\n%s", openErr.Reason(), openErr.Err)
		}
		l.notifier.NotifyError(device.PlaybackErrorTitle, fmt.Sprintf("Error playing sound:\n%s", reason))
		return FAILED_ACTIVATION, err
	}
	return PLAYED_ACTIVATION, nil
}

func (l *Launcher) prompt(padId apimodel.PadId) (ActivationOutcome, error) {
	locator, ok, err := l.picker.PromptForResource(padId)
	if err != nil {
		logrus.Warnf("Unable to select a resource for pad %d: %v", padId, err)
		return UNBOUND_ACTIVATION, nil
	}
	if !ok {
		logrus.Debugf("No resource selected for pad %d", padId)
		return UNBOUND_ACTIVATION, nil
	}

	l.registry.Bind(padId, locator)
	logrus.Infof("Pad %d bound to %s", padId, locator)
	return BOUND_ACTIVATION, nil
}

// padHighlighter mirrors the playback state on the pads
type padHighlighter struct {
	registry *pad.Registry
}

func (h padHighlighter) OnPlaybackStarted(padId apimodel.PadId) {
	h.registry.Highlight(padId)
}

func (h padHighlighter) OnPlaybackStopped() {
	h.registry.UnhighlightAll()
}
