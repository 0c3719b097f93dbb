// Package tlsroots provides TLS material for the frame listener and its
// clients:
//
//   - roots.go: trusted CA pools (system roots plus PEM files)
//   - reloader.go: certificate key pair reloaded when its files change
//   - selfsigned.go: throwaway certificates for tests and local setups
package tlsroots
