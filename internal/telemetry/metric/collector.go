package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/framekv-go/internal/storage"
)

// StoreCollector reports the store size at scrape time.
type StoreCollector struct {
	store storage.Counter
	keys  *prometheus.Desc
}

// NewStoreCollector creates a collector for store.
func NewStoreCollector(store storage.Counter) *StoreCollector {
	return &StoreCollector{
		store: store,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "keys"),
			"Number of keys held in the store",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.store.Len()))
}
