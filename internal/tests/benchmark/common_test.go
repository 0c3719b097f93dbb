package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/framekv-go/internal/server/frameserver"
	"github.com/yndnr/framekv-go/internal/storage/memory"
	"github.com/yndnr/framekv-go/internal/telemetry/logger"
	"github.com/yndnr/framekv-go/internal/telemetry/metric"
)

// ValueSizes are the value sizes in bytes used by size-parameterized
// benchmarks.
var ValueSizes = []int{16, 256, 4096, 65536}

// ShardCounts are the store shard counts compared under contention.
var ShardCounts = []int{1, 4, 16, 64}

// KeyCounts are the store sizes used to prefill.
var KeyCounts = []int{1000, 100000}

// newKey returns a unique, time-ordered key.
func newKey() string {
	return "key:" + ulid.Make().String()
}

// makeValue returns size bytes of filler.
func makeValue(size int) []byte {
	v := make([]byte, size)
	for i := range v {
		v[i] = byte('a' + i%26)
	}
	return v
}

// prefillStore sets count keys and returns them.
func prefillStore(store *memory.Store, count, valueSize int) []string {
	keys := make([]string, count)
	value := makeValue(valueSize)
	for i := range keys {
		keys[i] = fmt.Sprintf("key:%08d", i)
		store.Set(keys[i], value)
	}
	return keys
}

// startServer runs an in-process frame server with metrics enabled, so
// the measured path matches production.
func startServer(b *testing.B, store *memory.Store) string {
	b.Helper()
	cfg := frameserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"

	srv := frameserver.New(cfg, store, logger.Discard().Slog(),
		frameserver.WithMetrics(metric.NewRegistry()))
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("Start() error = %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/1024/1024, prefix+"_heap_MB")
}
