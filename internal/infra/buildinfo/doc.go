// Package buildinfo reports the version of the running binary.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/framekv-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Values left unset fall back to the VCS stamp the Go toolchain embeds
// in module builds.
package buildinfo
