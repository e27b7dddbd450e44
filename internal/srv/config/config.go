package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const paramFilename = "param.yaml"
const stateFilename = "state.yaml"

// ServerConfig gathers the command line flags, the param file and the state file of a config dir
type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
	*ServerState
}

// NewServerConfig loads configDir, creating it with default files on first run.
// An unusable config dir or param file is fatal.
func NewServerConfig(configDir string, debugMode bool, simulationMode bool) *ServerConfig {
	sc := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	if err := ensureDir(configDir); err != nil {
		logrus.Fatalf("Unable to use config folder %s: %v\n", configDir, err)
	}

	sc.ServerParam = sc.loadParam()
	if err := sc.ServerParam.Validate(); err != nil {
		logrus.Fatalf("Invalid param file %s: %v\n", sc.GetCompleteParamFilename(), err)
	}
	// Mifasol certificate lives next to the param file
	if sc.MifasolParam != nil {
		sc.MifasolParam.ConfigDir = configDir
	}

	sc.ServerState = NewServerState(sc.GetCompleteStateFilename())

	return sc
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logrus.Printf("Creation of config folder: %s", dir)
		return os.MkdirAll(dir, 0770)
	case err != nil:
		return err
	case !info.IsDir():
		return errors.New("not a directory")
	}
	return nil
}

func (sc *ServerConfig) loadParam() *ServerParam {
	rawParam, err := os.ReadFile(sc.GetCompleteParamFilename())
	if err != nil {
		logrus.Infof("Create default param file")
		sc.ServerParam = DefaultServerParam()
		sc.SaveParam()
		return sc.ServerParam
	}

	serverParam := &ServerParam{}
	if err = yaml.Unmarshal(rawParam, serverParam); err != nil {
		logrus.Fatalf("Unable to interpret param file: %v\n", err)
	}
	return serverParam
}

// DefaultServerParam returns the embedded default parameters
func DefaultServerParam() *ServerParam {
	serverParam := &ServerParam{}
	if err := yaml.Unmarshal(ParamDefaultFile, serverParam); err != nil {
		logrus.Fatalf("Unable to interpret default param file: %v\n", err)
	}
	return serverParam
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

func (sc *ServerConfig) GetCompleteStateFilename() string {
	return filepath.Join(sc.ConfigDir, stateFilename)
}

func (sc *ServerConfig) SaveParam() {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawParam, err := yaml.Marshal(sc.ServerParam)
	if err != nil {
		logrus.Fatalf("Unable to serialize param file: %v\n", err)
	}
	if err = os.WriteFile(sc.GetCompleteParamFilename(), rawParam, 0660); err != nil {
		logrus.Fatalf("Unable to save param file: %v\n", err)
	}
}
