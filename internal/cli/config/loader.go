package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.yaml.in/yaml/v3"

	"github.com/yndnr/framekv-go/internal/infra/confloader"
)

// EnvPrefix selects the environment variables read by Load, e.g.
// FRAMEKV_CLI_OUTPUT=json.
const EnvPrefix = "FRAMEKV_CLI_"

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".framekv", "cli.yaml")
}

// Load reads the configuration at path over Default. A missing file
// yields the defaults.
func Load(path string) (*CLIConfig, error) {
	cfg := Default()

	opts := []confloader.Option{confloader.WithEnvPrefix(EnvPrefix)}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			opts = append(opts, confloader.WithConfigFile(path))
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML readable only by the owner.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		return errors.New("config: no path to save to")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Resolve returns the server and timeout for profile, or for
// CurrentProfile when profile is empty. With no profile selected the
// top-level values apply.
func (c *CLIConfig) Resolve(profile string) (Profile, error) {
	res := Profile{Server: c.Server, Timeout: c.Timeout}

	if profile == "" {
		profile = c.CurrentProfile
	}
	if profile == "" {
		return res, nil
	}

	p, ok := c.Profiles[profile]
	if !ok {
		return Profile{}, fmt.Errorf("config: unknown profile %q", profile)
	}
	if p.Server != "" {
		res.Server = p.Server
	}
	if p.Timeout > 0 {
		res.Timeout = p.Timeout
	}
	return res, nil
}

// ProfileNames returns the saved profile names in order.
func (c *CLIConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
