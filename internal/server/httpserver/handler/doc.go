// Package handler serves the operational HTTP endpoints:
//
//   - health.go: liveness and readiness
//   - handler.go: routing and the JSON envelope
//
// /metrics is mounted by the router and bypasses the envelope.
package handler
