package confloader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultEnvPrefix is the default environment variable prefix.
	DefaultEnvPrefix = "FRAMEKV_"

	// EnvNestingSeparator separates nesting levels in variable names, so
	// single underscores can stay inside key names:
	// FRAMEKV_SERVER__FRAME__READ_TIMEOUT -> server.frame.read_timeout.
	EnvNestingSeparator = "__"

	delim = "."
)

// fileDecoders maps a lowercase file extension to the function that
// merges that file into k.
var fileDecoders = map[string]func(k *koanf.Koanf, path string) error{
	".yaml": loadYAML,
	".yml":  loadYAML,
	".toml": loadTOML,
}

func loadYAML(k *koanf.Koanf, path string) error {
	return k.Load(file.Provider(path), yaml.Parser())
}

// loadTOML decodes with BurntSushi/toml and feeds the tree to koanf as a map.
func loadTOML(k *koanf.Koanf, path string) error {
	var tree map[string]any
	if _, err := toml.DecodeFile(path, &tree); err != nil {
		return err
	}
	return k.Load(mapProvider(tree), nil)
}

// Loader merges configuration sources into one koanf tree.
//
// Sources apply in order, later ones winning: config file, environment,
// overrides.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets values applied after every other source. Keys are
// dotted paths such as "server.frame.addr".
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New(delim),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type source struct {
	name string
	load func() error
}

func (l *Loader) sources() []source {
	return []source{
		{"config file", func() error { return l.LoadFile(l.filePath) }},
		{"env", l.LoadEnv},
		{"overrides", func() error { return l.LoadMap(l.overrides) }},
	}
}

// Load merges every source and unmarshals the result into target.
// Fields of target that no source mentions keep their current values, so
// callers pass a struct already filled with defaults.
func (l *Loader) Load(target any) error {
	for _, s := range l.sources() {
		if err := s.load(); err != nil {
			return fmt.Errorf("load %s: %w", s.name, err)
		}
	}
	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile merges a YAML (.yaml, .yml) or TOML (.toml) file. An empty
// path is a no-op.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	ext := filepath.Ext(path)
	decode, ok := fileDecoders[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("%s: unsupported format %q", path, ext)
	}
	if err := decode(l.k, path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadEnv merges variables carrying the loader's prefix.
func (l *Loader) LoadEnv() error {
	key := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
		return strings.ReplaceAll(s, EnvNestingSeparator, delim)
	}
	return l.k.Load(env.Provider(l.envPrefix, delim, key), nil)
}

// LoadMap merges data, whose keys may be dotted paths. A nil map is a no-op.
func (l *Loader) LoadMap(data map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	return l.k.Load(mapProvider(maps.Unflatten(data, delim)), nil)
}

// Unmarshal decodes the merged tree into target using koanf struct tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}
