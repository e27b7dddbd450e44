package srv

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/device"
	"github.com/jypelle/vekipad/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// Press steps (160 ms each) on the stop button
const (
	displaySwitchPressStepCount = 5
	haltPressStepCount          = 20
)

func (s *ServerApp) eventLoop() {
	var apiEventChannel chan event.ApiEvent
	if s.apiDevice != nil {
		apiEventChannel = s.apiDevice.EventChannel()
	}

	for loop := true; loop; {
		select {
		case ev := <-s.internalEventChannel:
			switch ev.Data.(type) {
			case event.InternalEventPopupHideData:
				if s.popUpHideTimer != nil {
					s.refreshDisplay(true)
				}
			case event.InternalEventAnimationTickData:
				if s.animationTickTimer != nil {
					s.animationTickCount++
					s.refreshDisplay(false)
				}
			}
		case ev := <-s.playbackEngine.EventChannel():
			logrus.Debugf("Receive playback event")
			s.playbackEngine.HandleEvent(ev)
			s.refreshDisplay(s.currentPopUp == NO_POPUP)
		case ev := <-apiEventChannel:
			switch data := ev.Data.(type) {
			case event.ApiEventPadActivateData:
				ev.Result <- s.activatePad(data.PadId)
			case event.ApiEventPadBindData:
				s.registry.Bind(data.PadId, data.Path)
				logrus.Infof("Pad %d bound to %s", data.PadId, data.Path)
				ev.Result <- nil
				s.refreshDisplay(s.currentPopUp == NO_POPUP)
			case event.ApiEventPlaybackStopData:
				s.stopPlayback()
				ev.Result <- nil
			case event.ApiEventAudioVolumeData:
				s.setVolume(data.Volume)
				ev.Result <- nil
			case event.ApiEventCommandData:
				s.runCommand(data.Command)
				ev.Result <- nil
			case event.ApiEventDisplaySwitchData:
				s.switchDisplay()
				ev.Result <- nil
			default:
				ev.Result <- fmt.Errorf("unsupported api event %T", ev.Data)
			}
		case ev := <-s.buttonsDevice.EventChannel():
			logrus.Debugf("Receive button event: %d, %d, %d, %d", ev.Action, ev.PadId, ev.ButtonEventType, ev.PressStepCount)
			s.handleButtonEvent(ev)
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

func (s *ServerApp) handleButtonEvent(ev event.ButtonEvent) {
	switch ev.Action {
	case event.PAD_BUTTON:
		if ev.ButtonEventType == event.PRESS_EVENT_TYPE && ev.PressStepCount == 1 {
			if err := s.activatePad(ev.PadId); err != nil {
				logrus.Debugf("Activation of pad %d failed: %v", ev.PadId, err)
			}
		}
	case event.STOP_BUTTON:
		if ev.ButtonEventType == event.RELEASE_EVENT_TYPE && ev.PressStepCount < displaySwitchPressStepCount {
			s.stopPlayback()
		} else if ev.ButtonEventType == event.PRESS_EVENT_TYPE {
			switch ev.PressStepCount {
			case displaySwitchPressStepCount:
				s.switchDisplay()
			case haltPressStepCount:
				logrus.Debugf("See you!")
				syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
			}
		}
	case event.VOLUME_UP_BUTTON:
		if ev.ButtonEventType == event.PRESS_EVENT_TYPE {
			logrus.Debugf("Receive button volume up event")
			s.playbackEngine.IncreaseVolume()
			s.showPopUp(VOLUME_POPUP, "")
		}
	case event.VOLUME_DOWN_BUTTON:
		if ev.ButtonEventType == event.PRESS_EVENT_TYPE {
			logrus.Debugf("Receive button volume down event")
			s.playbackEngine.DecreaseVolume()
			s.showPopUp(VOLUME_POPUP, "")
		}
	case event.COMMAND_BUTTON:
		if ev.ButtonEventType == event.PRESS_EVENT_TYPE && ev.PressStepCount == 1 {
			s.runCommand(ev.Command)
		}
	}
}

func (s *ServerApp) activatePad(padId apimodel.PadId) error {
	if !s.registry.Contains(padId) {
		logrus.Warnf("Ignore activation of unknown pad %d", padId)
		return fmt.Errorf("unknown pad %d", padId)
	}

	outcome, err := s.launcher.Activate(padId)
	logrus.Debugf("Activation of pad %d: %s", padId, outcome)

	switch outcome {
	case FAILED_ACTIVATION:
		reason := "Unreadable file"
		var openErr *device.OpenError
		if errors.As(err, &openErr) {
			reason = openErr.Reason()
		}
		s.showPopUp(PLAYBACK_ERROR_POPUP, reason)
	case UNBOUND_ACTIVATION:
		s.showPopUp(UNBOUND_POPUP, fmt.Sprintf("Pad %d unbound", padId))
	default:
		s.refreshDisplay(s.currentPopUp == NO_POPUP)
	}
	return err
}

func (s *ServerApp) stopPlayback() {
	logrus.Debugf("Stop playing sound")
	s.playbackEngine.Stop()
	s.refreshDisplay(s.currentPopUp == NO_POPUP)
}

func (s *ServerApp) setVolume(volume float64) {
	s.playbackEngine.SetVolume(volume)
	s.showPopUp(VOLUME_POPUP, "")
}

// runCommand acknowledges mode and effect commands, which have no playback effect
func (s *ServerApp) runCommand(command event.Command) {
	logrus.Infof("Command %s received", command)
	s.showPopUp(COMMAND_POPUP, command.Title())
}

func (s *ServerApp) switchDisplay() {
	on := s.displayDevice.Switch()
	logrus.Debugf("Display switched on: %t", on)
}

func (s *ServerApp) showPopUp(popUp PopUp, message string) {
	if s.popUpHideTimer != nil {
		s.popUpHideTimer.Stop()
	}
	s.currentPopUp = popUp
	s.popUpMessage = message
	s.popUpHideTimer = time.AfterFunc(popUpDuration, func() {
		s.internalEventChannel <- event.InternalEvent{Data: event.InternalEventPopupHideData{}}
	})
	s.refreshDisplay(false)
}
