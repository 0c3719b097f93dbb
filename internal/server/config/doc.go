// Package config defines the framekv-server configuration.
//
//   - spec.go: ServerConfig struct definition (koanf tags)
//   - default.go: Default configuration values
//   - verify.go: Validation run after loading
//
// Configuration is loaded via internal/infra/confloader from defaults, an
// optional YAML or TOML file, and FRAMEKV_ environment variables, in that
// order of precedence (later wins).
package config
