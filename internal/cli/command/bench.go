package command

import (
	"context"
	"crypto/tls"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/framekv-go/internal/cli/output"
	"github.com/yndnr/framekv-go/pkg/client"
)

// BenchConfig describes one benchmark run.
type BenchConfig struct {
	Server   string
	Clients  int
	Requests int
	Size     int
	Keyspace int
	Timeout  time.Duration
	TLS      *tls.Config
}

// BenchResult summarizes a benchmark run.
type BenchResult struct {
	Clients   int           `json:"clients" yaml:"clients"`
	Requests  int           `json:"requests" yaml:"requests"`
	Errors    int64         `json:"errors" yaml:"errors"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration"`
	OpsPerSec float64       `json:"ops_per_sec" yaml:"ops_per_sec"`
	P50       time.Duration `json:"p50_ns" yaml:"p50"`
	P99       time.Duration `json:"p99_ns" yaml:"p99"`
	Max       time.Duration `json:"max_ns" yaml:"max"`
}

// Table implements output.Tabler.
func (r BenchResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"METRIC", "VALUE"}}
	t.AddRow("clients", strconv.Itoa(r.Clients))
	t.AddRow("requests", strconv.Itoa(r.Requests))
	t.AddRow("errors", strconv.FormatInt(r.Errors, 10))
	t.AddRow("duration", r.Duration.Round(time.Millisecond).String())
	t.AddRow("ops/sec", strconv.FormatFloat(r.OpsPerSec, 'f', 0, 64))
	t.AddRow("p50", r.P50.String())
	t.AddRow("p99", r.P99.String())
	t.AddRow("max", r.Max.String())
	return t
}

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Run alternating SET/GET load from concurrent clients",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "clients", Aliases: []string{"c"}, Usage: "concurrent connections", Value: 8},
			&cli.IntFlag{Name: "requests", Aliases: []string{"n"}, Usage: "total requests", Value: 10000},
			&cli.IntFlag{Name: "size", Aliases: []string{"d"}, Usage: "value size in bytes", Value: 64},
			&cli.IntFlag{Name: "keyspace", Aliases: []string{"r"}, Usage: "number of distinct keys", Value: 1000},
			&cli.BoolFlag{Name: "progress", Usage: "show a progress bar on stderr"},
		},
		Action: func(c *cli.Context) error {
			flags, err := ParseGlobalFlags(c)
			if err != nil {
				return err
			}

			cfg := BenchConfig{
				Server:   flags.Server,
				Clients:  c.Int("clients"),
				Requests: c.Int("requests"),
				Size:     c.Int("size"),
				Keyspace: c.Int("keyspace"),
				Timeout:  flags.Timeout,
				TLS:      flags.TLS,
			}

			var bar *output.ProgressBar
			if c.Bool("progress") {
				bar = output.NewProgressBar(c.App.ErrWriter, "bench", int64(cfg.Requests))
			}

			res, err := RunBench(c.Context, cfg, bar)
			if err != nil {
				return err
			}
			return render(c, flags.Output, res)
		},
	}
}

// RunBench drives cfg.Requests operations through a client pool of
// cfg.Clients connections. Even operations are SETs, odd ones GETs.
func RunBench(ctx context.Context, cfg BenchConfig, bar *output.ProgressBar) (BenchResult, error) {
	if cfg.Clients <= 0 || cfg.Requests <= 0 || cfg.Keyspace <= 0 || cfg.Size < 0 {
		return BenchResult{}, fmt.Errorf("bench: clients, requests and keyspace must be positive")
	}

	opts := []client.Option{client.WithTimeout(cfg.Timeout)}
	if cfg.TLS != nil {
		opts = append(opts, client.WithTLS(cfg.TLS))
	}
	pool := client.NewPool(ctx, client.PoolConfig{
		Addr:     cfg.Server,
		MaxTotal: cfg.Clients,
		Options:  opts,
	})
	defer pool.Close(ctx)

	// Fail fast when the server is unreachable.
	if err := pool.Do(ctx, func(cl *client.Client) error {
		_, err := cl.Ping(ctx, nil)
		return err
	}); err != nil {
		return BenchResult{}, fmt.Errorf("bench: %w", err)
	}

	value := make([]byte, cfg.Size)
	for i := range value {
		value[i] = 'x'
	}

	var (
		next   atomic.Int64
		errs   atomic.Int64
		wg     sync.WaitGroup
		mu     sync.Mutex
		merged = make([]time.Duration, 0, cfg.Requests)
	)

	start := time.Now()
	for w := 0; w < cfg.Clients; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]time.Duration, 0, cfg.Requests/cfg.Clients+1)

			for {
				i := next.Add(1) - 1
				if i >= int64(cfg.Requests) || ctx.Err() != nil {
					break
				}
				key := "bench:" + strconv.FormatInt(i/2%int64(cfg.Keyspace), 10)

				opStart := time.Now()
				err := pool.Do(ctx, func(cl *client.Client) error {
					if i%2 == 0 {
						return cl.Set(ctx, key, value)
					}
					_, _, err := cl.Get(ctx, key)
					return err
				})
				local = append(local, time.Since(opStart))
				if err != nil {
					errs.Add(1)
				}
				if bar != nil {
					bar.Increment(1)
				}
			}

			mu.Lock()
			merged = append(merged, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	if bar != nil {
		bar.Finish()
	}

	res := BenchResult{
		Clients:  cfg.Clients,
		Requests: len(merged),
		Errors:   errs.Load(),
		Duration: elapsed,
	}
	if elapsed > 0 {
		res.OpsPerSec = float64(len(merged)) / elapsed.Seconds()
	}
	if len(merged) > 0 {
		slices.Sort(merged)
		res.P50 = percentile(merged, 50)
		res.P99 = percentile(merged, 99)
		res.Max = merged[len(merged)-1]
	}
	return res, ctx.Err()
}

// percentile returns the p-th percentile of sorted latencies.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (len(sorted)*p + 99) / 100
	if idx < 1 {
		idx = 1
	}
	return sorted[idx-1]
}
