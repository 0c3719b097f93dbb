// Package httpserver runs the operational HTTP side server.
//
// Endpoints:
//
//   - GET /health: server id, version and open connections
//   - GET /ready: 200 once the frame listener is bound
//   - GET /metrics: Prometheus exposition
//
// Every request passes through Recover, RequestID and AccessLog.
package httpserver
