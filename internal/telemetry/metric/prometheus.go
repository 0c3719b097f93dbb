package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "framekv"

// Command status label values.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusUnsupported = "unsupported"
	StatusRateLimited = "rate_limited"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	connectionErrors  *prometheus.CounterVec
	acceptErrors      prometheus.Counter
	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
}

// NewRegistry creates a registry with the server metrics and the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.connectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "connections_active",
		Help:      "Number of client connections currently open",
	})

	r.connectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "connections_total",
		Help:      "Total client connections accepted",
	})

	r.connectionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "connection_errors_total",
		Help:      "Connections closed by a fatal error, by failing operation",
	}, []string{"op"})

	r.acceptErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "accept_errors_total",
		Help:      "Failed accept attempts on the listener",
	})

	r.commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "command",
		Name:      "total",
		Help:      "Commands processed, by command and status",
	}, []string{"command", "status"})

	r.commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "command",
		Name:      "duration_seconds",
		Help:      "Time spent executing commands against the store",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
	}, []string{"command"})

	r.reg.MustRegister(
		r.connectionsActive,
		r.connectionsTotal,
		r.connectionErrors,
		r.acceptErrors,
		r.commandsTotal,
		r.commandDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.connectionsTotal.Inc()
	r.connectionsActive.Inc()
}

// ConnClosed records a closed connection. op names the failing operation
// for connections closed by an error and is empty on a clean close.
func (r *Registry) ConnClosed(op string) {
	if r == nil {
		return
	}
	r.connectionsActive.Dec()
	if op != "" {
		r.connectionErrors.WithLabelValues(op).Inc()
	}
}

// AcceptFailed records a failed accept.
func (r *Registry) AcceptFailed() {
	if r == nil {
		return
	}
	r.acceptErrors.Inc()
}

// CommandDone records one processed command.
func (r *Registry) CommandDone(command, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.commandsTotal.WithLabelValues(command, status).Inc()
	if status == StatusOK {
		r.commandDuration.WithLabelValues(command).Observe(d.Seconds())
	}
}
