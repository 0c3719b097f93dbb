// Package confloader loads configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults already present in the target struct
//  2. Configuration file (YAML or TOML, chosen by extension)
//  3. Environment variables (FRAMEKV_ prefix)
//  4. Explicit overrides passed to LoadMap (command-line flags)
//
// Watcher reports changes to a configuration file so callers can reload.
package confloader
