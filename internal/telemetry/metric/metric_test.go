package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

func gather(t *testing.T, r *Registry) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

// ============================================================
// Registry tests
// ============================================================

func TestRegistry_Connections(t *testing.T) {
	r := NewRegistry()

	r.ConnOpened()
	r.ConnOpened()
	r.ConnClosed("")
	r.ConnClosed("decode")
	r.ConnOpened()

	mfs := gather(t, r)
	if got := mfs["framekv_server_connections_active"].GetMetric()[0].GetGauge().GetValue(); got != 1 {
		t.Errorf("connections_active = %v, want 1", got)
	}
	if got := mfs["framekv_server_connections_total"].GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("connections_total = %v, want 3", got)
	}
	errs := mfs["framekv_server_connection_errors_total"].GetMetric()
	if len(errs) != 1 || errs[0].GetCounter().GetValue() != 1 {
		t.Errorf("connection_errors_total = %v, want one series at 1", errs)
	}
}

func TestRegistry_Commands(t *testing.T) {
	r := NewRegistry()

	r.CommandDone("set", StatusOK, time.Microsecond)
	r.CommandDone("set", StatusOK, time.Microsecond)
	r.CommandDone("unknown", StatusUnsupported, 0)

	mfs := gather(t, r)
	series := mfs["framekv_command_total"].GetMetric()
	if len(series) != 2 {
		t.Fatalf("command_total has %d series, want 2", len(series))
	}
	hist := mfs["framekv_command_duration_seconds"].GetMetric()
	if len(hist) != 1 || hist[0].GetHistogram().GetSampleCount() != 2 {
		t.Errorf("duration histogram = %v, want one series with 2 samples", hist)
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	r.ConnOpened()
	r.ConnClosed("write")
	r.AcceptFailed()
	r.CommandDone("get", StatusOK, time.Millisecond)
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.AcceptFailed()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "framekv_server_accept_errors_total 1") {
		t.Errorf("metrics output missing accept errors:\n%s", body)
	}
}

// ============================================================
// Collector tests
// ============================================================

func TestStoreCollector(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewStoreCollector(fixedCounter(42)))

	mfs := gather(t, r)
	mf, ok := mfs["framekv_store_keys"]
	if !ok {
		t.Fatal("framekv_store_keys not gathered")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 42 {
		t.Errorf("store_keys = %v, want 42", got)
	}
}

func TestStoreCollector_Describe(t *testing.T) {
	ch := make(chan *prometheus.Desc, 1)
	NewStoreCollector(fixedCounter(0)).Describe(ch)
	close(ch)
	if d := <-ch; d == nil {
		t.Error("Describe sent no descriptor")
	}
}
