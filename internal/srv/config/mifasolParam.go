package config

import (
	"fmt"
	"path/filepath"
)

const mifasolCertFilename = "mifasolcert.pem"

// MifasolParam configures the mifasol server serving "mifasol:<songId>" pad resources.
// The getters satisfy the mifasol rest client configuration contract.
type MifasolParam struct {
	ConfigDir  string `yaml:"-"`
	Hostname   string `yaml:"hostname"`
	Port       int64  `yaml:"port"`
	Ssl        bool   `yaml:"ssl"`
	SelfSigned bool   `yaml:"self_signed"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	TimeoutS   int64  `yaml:"timeout"`
}

func (c MifasolParam) validate() error {
	if c.Hostname == "" {
		return fmt.Errorf("mifasol hostname is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("mifasol port %d is invalid", c.Port)
	}
	return nil
}

func (c MifasolParam) GetCompleteConfigCertFilename() string {
	return filepath.Join(c.ConfigDir, mifasolCertFilename)
}

func (c MifasolParam) GetServerHostname() string { return c.Hostname }
func (c MifasolParam) GetServerPort() int64      { return c.Port }
func (c MifasolParam) GetServerSsl() bool        { return c.Ssl }
func (c MifasolParam) GetServerSelfSigned() bool { return c.SelfSigned }
func (c MifasolParam) GetTimeout() int64         { return c.TimeoutS }
func (c MifasolParam) GetUsername() string       { return c.Username }
func (c MifasolParam) GetPassword() string       { return c.Password }
