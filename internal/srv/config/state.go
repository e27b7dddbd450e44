package config

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const DefaultVolume = 0.5

const defaultSaveDelay = 10 * time.Second

// ServerState holds the settings surviving a restart. Pad bindings are deliberately absent.
type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	saveDelay             time.Duration
	completeStateFilename string
}

type ServerStateConfig struct {
	Volume float64 `yaml:"volume"`
}

func NewServerState(completeStateFilename string) *ServerState {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
		saveDelay:             defaultSaveDelay,
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err == nil {
		// Interpret state file
		err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig)
		if err != nil {
			logrus.Fatalf("Unable to interpret state file: %v\n", err)
		}
		serverState.serverStateConfig.Volume = clampVolume(serverState.serverStateConfig.Volume)
	} else {
		// Create default state file
		logrus.Infof("Create default state file")
		serverState.SetVolume(DefaultVolume)
	}

	return serverState
}

func (ss *ServerState) Volume() float64 {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.Volume
}

// SetVolume stores volume, clamped to [0,1], and schedules a state file save
func (ss *ServerState) SetVolume(volume float64) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.Volume = clampVolume(volume)
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(ss.saveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(ss.saveDelay)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Errorf("Unable to serialize state file: %v", err)
		return
	}
	err = os.WriteFile(ss.completeStateFilename, rawConfig, 0660)
	if err != nil {
		logrus.Errorf("Unable to save state file: %v", err)
	}
}

// FlushSave writes a pending save immediately
func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}

func clampVolume(volume float64) float64 {
	if volume > 1 {
		return 1
	}
	if volume < 0 || volume != volume {
		return 0
	}
	return volume
}
