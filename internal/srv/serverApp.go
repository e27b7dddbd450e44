package srv

import (
	"image"
	"os"
	"os/exec"
	"time"

	"github.com/jypelle/vekipad/apimodel"
	"github.com/jypelle/vekipad/internal/srv/config"
	"github.com/jypelle/vekipad/internal/srv/device"
	"github.com/jypelle/vekipad/internal/srv/event"
	"github.com/jypelle/vekipad/internal/srv/pad"
	"github.com/jypelle/vekipad/internal/version"
	"github.com/sirupsen/logrus"
)

// OutputDevice is an audio output with a lifecycle
type OutputDevice interface {
	device.Output
	Start() error
	Stop()
}

type ServerApp struct {
	*config.ServerConfig
	registry       *pad.Registry
	resolver       *device.ResourceResolver
	launcher       *Launcher
	displayDevice  *device.Display
	outputDevice   OutputDevice
	playbackEngine *device.PlaybackEngine
	buttonsDevice  *device.Buttons
	apiDevice      *device.Api

	currentMode Mode

	currentPopUp   PopUp
	popUpMessage   string
	popUpHideTimer *time.Timer

	animationTickCount int
	animationTickTimer *time.Timer

	internalEventChannel chan event.InternalEvent

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

type Mode int64

const (
	UNDEFINED_MODE Mode = iota
	PAD_MODE
	END_MODE
)

type PopUp int64

const (
	NO_POPUP PopUp = iota
	VOLUME_POPUP
	PLAYBACK_ERROR_POPUP
	UNBOUND_POPUP
	COMMAND_POPUP
)

const popUpDuration = 1200 * time.Millisecond

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of %s server %s ...", version.AppName, version.AppVersion.String())

	app := &ServerApp{
		currentMode:          UNDEFINED_MODE,
		internalEventChannel: make(chan event.InternalEvent),
		eventLoopAskDone:     make(chan bool),
		eventLoopDone:        make(chan bool),
		ServerConfig:         config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	app.registry = pad.NewRegistry(app.Grid.PadCount())
	app.resolver = device.NewResourceResolver(app.MifasolParam)
	sampleCache := device.NewSampleCache(app.Cache)

	app.displayDevice = device.NewDisplay(app.SimulationMode)
	if app.SimulationMode {
		app.outputDevice = device.NewSimulationOutput(app.Output, app.resolver, sampleCache)
	} else {
		app.outputDevice = device.NewSpeakerOutput(app.Output, app.resolver, sampleCache)
	}
	app.playbackEngine = device.NewPlaybackEngine(app.outputDevice, app.ServerState, padHighlighter{registry: app.registry})
	app.launcher = NewLauncher(
		app.registry,
		app.playbackEngine,
		device.NewPicker(app.Picker),
		device.NewNotifier(app.Picker.Kind != config.PickerNone),
		app.resolver.Exists,
	)
	app.buttonsDevice = device.NewButtons(app.Gpio, app.SimulationMode)
	if app.ApiParam.Enabled {
		app.apiDevice = device.NewApi(app.ApiParam, app.ConfigDir, app)
	}

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting %s server ...", version.AppName)

	logrus.Printf("Starting devices ...")

	// Start display device
	s.displayDevice.Start()

	// Display startup screen
	s.refreshDisplay(true)
	time.Sleep(2 * time.Second)

	// Start audio output: a missing device is reported on each pad activation
	if err := s.outputDevice.Start(); err != nil {
		logrus.Errorf("Unable to start audio output: %v", err)
	}

	// Start playback engine
	s.playbackEngine.Start()

	// Start event loop
	go s.eventLoop()

	// Start buttons device
	s.buttonsDevice.Start()

	// Start api device
	if s.apiDevice != nil {
		s.apiDevice.Start()
	}

	s.currentMode = PAD_MODE
	s.refreshDisplay(true)
}

func (s *ServerApp) Stop(halt bool) {
	logrus.Printf("Stopping %s server ...", version.AppName)

	// Stop api
	if s.apiDevice != nil {
		s.apiDevice.StopSendingEvent()
	}

	// Stop buttons device
	s.buttonsDevice.StopSendingEvent()

	// Stop playback completion events
	s.playbackEngine.StopSendingEvent()

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Display end mode image
	s.currentMode = END_MODE
	s.refreshDisplay(true)

	// Release the active voice
	s.playbackEngine.Shutdown()

	// Stop audio output
	s.outputDevice.Stop()

	// Stop display device
	s.displayDevice.Stop()

	// Flush state backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		haltCmd := exec.Command("sudo", "halt")
		err := haltCmd.Run()
		if err != nil {
			logrus.Panicf("Unable to halt the system: %v", err)
		}
	}
	os.Exit(0)
}

// Pads is a snapshot of the pads for the api
func (s *ServerApp) Pads() []apimodel.Pad {
	pads := s.registry.Pads()
	apiPads := make([]apimodel.Pad, len(pads))
	for i, p := range pads {
		apiPads[i] = toApiPad(p)
	}
	return apiPads
}

func (s *ServerApp) Pad(padId apimodel.PadId) (apimodel.Pad, bool) {
	if !s.registry.Contains(padId) {
		return apimodel.Pad{}, false
	}
	return toApiPad(s.registry.Pad(padId)), true
}

func (s *ServerApp) Playback() apimodel.Playback {
	playback := apimodel.Playback{
		State:  apimodel.PadStateIdle,
		Volume: s.playbackEngine.Volume(),
	}
	if padId, playing := s.playbackEngine.CurrentPad(); playing {
		playback.State = apimodel.PadStatePlaying
		playback.PadId = &padId
	}
	return playback
}

func (s *ServerApp) DisplayOn() bool {
	return s.displayDevice.IsOn()
}

func (s *ServerApp) Screen() image.Image {
	return s.displayDevice.LastImage()
}

func toApiPad(p pad.Pad) apimodel.Pad {
	return apimodel.Pad{
		PadId: p.PadId,
		Path:  p.Path,
		Label: p.Label(),
		State: p.State,
	}
}
