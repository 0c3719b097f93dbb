// Package metric provides Prometheus metrics for framekv.
//
//   - prometheus.go: registry, server metrics and the HTTP handler
//   - collector.go: collector reporting store size on scrape
//
// Every recording method is safe to call on a nil *Registry, which lets
// components run with metrics disabled without branching.
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
