package config

import (
	"time"

	"github.com/yndnr/framekv-go/pkg/client"
)

// DefaultServer is the server used when nothing else names one.
const DefaultServer = "127.0.0.1:7379"

// CLIConfig is the configuration for framekv-cli.
type CLIConfig struct {
	Server  string        `koanf:"server" yaml:"server"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	Output  string        `koanf:"output" yaml:"output"`

	// CurrentProfile is used when --profile is not given.
	CurrentProfile string             `koanf:"current_profile" yaml:"current_profile,omitempty"`
	Profiles       map[string]Profile `koanf:"profiles" yaml:"profiles,omitempty"`
}

// Profile is a saved server. Zero fields inherit the top-level values.
type Profile struct {
	Server  string        `koanf:"server" yaml:"server"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:   DefaultServer,
		Timeout:  client.DefaultTimeout,
		Output:   "table",
		Profiles: make(map[string]Profile),
	}
}
