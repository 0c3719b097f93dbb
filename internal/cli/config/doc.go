// Package config provides the framekv-cli configuration file.
//
//   - spec.go: CLIConfig struct (~/.framekv/cli.yaml)
//   - loader.go: Loading through confloader, saving as YAML, profile lookup
//
// Example:
//
//	server: 127.0.0.1:7379
//	timeout: 5s
//	output: table
//	current_profile: staging
//	profiles:
//	  staging:
//	    server: 10.0.0.5:7379
//	    timeout: 2s
package config
