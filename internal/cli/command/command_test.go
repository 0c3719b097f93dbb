package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/framekv-go/internal/cli/config"
	"github.com/yndnr/framekv-go/internal/cli/output"
	"github.com/yndnr/framekv-go/internal/infra/buildinfo"
	"github.com/yndnr/framekv-go/internal/infra/tlsroots"
	"github.com/yndnr/framekv-go/internal/server/frameserver"
	"github.com/yndnr/framekv-go/internal/storage/memory"
)

func startServer(t *testing.T) string {
	t.Helper()
	cfg := frameserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := frameserver.New(cfg, memory.New(), logger)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv.Addr().String()
}

// run executes the CLI with args against addr and returns its stdout.
func run(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	cfgPath := filepath.Join(t.TempDir(), "cli.yaml")
	argv := append([]string{"framekv-cli", "--config", cfgPath, "--server", addr, "--timeout", "2s"}, args...)
	err := app.Run(argv)
	return stdout.String(), err
}

// ============================================================
// App tests
// ============================================================

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "framekv-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "framekv-cli")
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"get", "set", "ping", "bench", "repl", "config", "version"} {
		if !names[want] {
			t.Errorf("missing command: %s", want)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	names := make(map[string]bool)
	for _, f := range globalFlags() {
		names[f.Names()[0]] = true
	}
	for _, want := range []string{"config", "profile", "server", "timeout", "output"} {
		if !names[want] {
			t.Errorf("missing flag: %s", want)
		}
	}
}

func TestParseGlobalFlags_Defaults(t *testing.T) {
	var got *GlobalFlags
	app := App()
	app.Writer = io.Discard
	app.Action = func(c *cli.Context) error {
		var err error
		got, err = ParseGlobalFlags(c)
		return err
	}
	for _, env := range []string{"FRAMEKV_SERVER", "FRAMEKV_TIMEOUT", "FRAMEKV_PROFILE"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	cfgPath := filepath.Join(t.TempDir(), "cli.yaml")
	if err := app.Run([]string{"framekv-cli", "--config", cfgPath}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Server != config.DefaultServer {
		t.Errorf("Server = %q, want %q", got.Server, config.DefaultServer)
	}
	if got.Output != output.FormatTable {
		t.Errorf("Output = %q, want %q", got.Output, output.FormatTable)
	}
	if got.Timeout <= 0 {
		t.Errorf("Timeout = %v, want positive", got.Timeout)
	}
}

// ============================================================
// Key/value command tests
// ============================================================

func TestSetThenGet(t *testing.T) {
	addr := startServer(t)

	out, err := run(t, addr, "set", "greeting", "hello")
	if err != nil {
		t.Fatalf("set error = %v", err)
	}
	if strings.TrimSpace(out) != "OK" {
		t.Errorf("set output = %q, want OK", out)
	}

	out, err = run(t, addr, "get", "greeting")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("get output = %q, want hello", out)
	}
}

func TestGet_Missing(t *testing.T) {
	addr := startServer(t)

	out, err := run(t, addr, "get", "nope")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if strings.TrimSpace(out) != "(nil)" {
		t.Errorf("get output = %q, want (nil)", out)
	}
}

func TestGet_JSON(t *testing.T) {
	addr := startServer(t)
	if _, err := run(t, addr, "set", "k", "v"); err != nil {
		t.Fatalf("set error = %v", err)
	}

	out, err := run(t, addr, "-o", "json", "get", "k")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	var res GetResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res != (GetResult{Key: "k", Value: "v", Found: true}) {
		t.Errorf("result = %+v", res)
	}
}

func TestPing(t *testing.T) {
	addr := startServer(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no message", []string{"ping"}, "PONG"},
		{"echo", []string{"ping", "hi there"}, "hi there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, addr, tt.args...)
			if err != nil {
				t.Fatalf("ping error = %v", err)
			}
			if strings.TrimSpace(out) != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestCommands_BadArgs(t *testing.T) {
	addr := startServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{"get without key", []string{"get"}},
		{"get extra", []string{"get", "a", "b"}},
		{"set missing value", []string{"set", "a"}},
		{"ping extra", []string{"ping", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, addr, tt.args...)
			if err == nil || !strings.Contains(err.Error(), "expected") {
				t.Errorf("error = %v, want argument count error", err)
			}
		})
	}
}

func TestCommands_BadOutputFormat(t *testing.T) {
	addr := startServer(t)
	if _, err := run(t, addr, "-o", "xml", "ping"); err == nil {
		t.Error("expected error for unknown output format")
	}
}

func TestCommands_ConnectFailure(t *testing.T) {
	_, err := run(t, "127.0.0.1:1", "ping")
	if err == nil || !strings.Contains(err.Error(), "connect to 127.0.0.1:1") {
		t.Errorf("error = %v, want connect failure", err)
	}
}

func TestRepl(t *testing.T) {
	addr := startServer(t)

	var stdout bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader("set k \"a b\"\nget k\nget none\nexit\n")

	dir := t.TempDir()
	history := filepath.Join(dir, "history")
	err := app.Run([]string{"framekv-cli", "--config", filepath.Join(dir, "cli.yaml"), "--server", addr, "repl", "--history", history})
	if err != nil {
		t.Fatalf("repl error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"connected to " + addr, "OK\n", "\"a b\"\n", "(nil)\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	saved, err := os.ReadFile(history)
	if err != nil {
		t.Fatalf("history not saved: %v", err)
	}
	if !strings.Contains(string(saved), "get none\n") {
		t.Errorf("history = %q", saved)
	}
}

func TestTLS(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")
	if err := tlsroots.WriteSelfSigned(certFile, keyFile, time.Hour, "127.0.0.1"); err != nil {
		t.Fatal(err)
	}
	certs, err := tlsroots.NewReloader(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}

	cfg := frameserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.TLS = certs.ServerConfig(nil)
	srv := frameserver.New(cfg, memory.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	addr := srv.Addr().String()

	out, err := run(t, addr, "--tls-ca", certFile, "ping")
	if err != nil {
		t.Fatalf("ping over TLS error = %v", err)
	}
	if strings.TrimSpace(out) != "PONG" {
		t.Errorf("output = %q, want PONG", out)
	}

	if _, err := run(t, addr, "--tls-ca", certFile, "bench", "-c", "2", "-n", "10"); err != nil {
		t.Errorf("bench over TLS error = %v", err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"cert without key", []string{"--tls-ca", certFile, "--tls-cert", certFile, "ping"}},
		{"missing ca file", []string{"--tls-ca", filepath.Join(dir, "absent.pem"), "ping"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, addr, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// ============================================================
// Config tests
// ============================================================

// runWithConfig runs the CLI against cfgPath without --server, so the
// configuration file decides where to connect.
func runWithConfig(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = io.Discard
	t.Setenv("FRAMEKV_SERVER", "")
	os.Unsetenv("FRAMEKV_SERVER")

	err := app.Run(append([]string{"framekv-cli", "--config", cfgPath}, args...))
	return stdout.String(), err
}

func TestConfig_Profiles(t *testing.T) {
	addr := startServer(t)
	cfgPath := filepath.Join(t.TempDir(), "cli.yaml")

	if _, err := runWithConfig(t, cfgPath, "config", "set-profile", "--addr", addr, "local"); err != nil {
		t.Fatalf("set-profile error = %v", err)
	}
	if _, err := runWithConfig(t, cfgPath, "config", "set-profile", "--addr", "127.0.0.1:1", "dead"); err != nil {
		t.Fatalf("set-profile error = %v", err)
	}

	out, err := runWithConfig(t, cfgPath, "--profile", "local", "ping")
	if err != nil {
		t.Fatalf("ping via profile error = %v", err)
	}
	if strings.TrimSpace(out) != "PONG" {
		t.Errorf("ping output = %q", out)
	}

	if _, err := runWithConfig(t, cfgPath, "--profile", "dead", "ping"); err == nil {
		t.Error("ping via dead profile: error = nil")
	}

	if _, err := runWithConfig(t, cfgPath, "config", "use", "local"); err != nil {
		t.Fatalf("use error = %v", err)
	}
	if _, err := runWithConfig(t, cfgPath, "ping"); err != nil {
		t.Errorf("ping via current profile error = %v", err)
	}

	out, err = runWithConfig(t, cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	for _, want := range []string{"PROFILE", "local", addr, "dead", "*"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	if _, err := runWithConfig(t, cfgPath, "config", "use", "missing"); err == nil {
		t.Error("use missing: error = nil")
	}
	if _, err := runWithConfig(t, cfgPath, "--profile", "missing", "ping"); err == nil {
		t.Error("unknown --profile: error = nil")
	}
}

func TestConfig_ShowJSON(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cli.yaml")
	cfg := config.Default()
	cfg.Output = "json"
	cfg.Server = "10.9.9.9:7379"
	if err := config.Save(cfg, cfgPath); err != nil {
		t.Fatal(err)
	}

	out, err := runWithConfig(t, cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	var view configView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if view.Server != "10.9.9.9:7379" || view.Output != "json" || view.Path != cfgPath {
		t.Errorf("view = %+v", view)
	}
}

// ============================================================
// Bench tests
// ============================================================

func TestBench(t *testing.T) {
	addr := startServer(t)

	out, err := run(t, addr, "-o", "json", "bench", "-c", "4", "-n", "200", "-d", "16", "-r", "10")
	if err != nil {
		t.Fatalf("bench error = %v", err)
	}
	var res BenchResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Requests != 200 {
		t.Errorf("Requests = %d, want 200", res.Requests)
	}
	if res.Errors != 0 {
		t.Errorf("Errors = %d, want 0", res.Errors)
	}
	if res.P50 > res.P99 || res.P99 > res.Max {
		t.Errorf("percentiles out of order: p50=%v p99=%v max=%v", res.P50, res.P99, res.Max)
	}
}

func TestBench_Table(t *testing.T) {
	addr := startServer(t)

	out, err := run(t, addr, "bench", "-c", "2", "-n", "20", "--progress")
	if err != nil {
		t.Fatalf("bench error = %v", err)
	}
	for _, want := range []string{"METRIC", "ops/sec", "p99"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunBench_InvalidConfig(t *testing.T) {
	_, err := RunBench(context.Background(), BenchConfig{Server: "127.0.0.1:1", Clients: 0, Requests: 1, Keyspace: 1}, nil)
	if err == nil {
		t.Error("expected error for zero clients")
	}
}

func TestRunBench_Unreachable(t *testing.T) {
	cfg := BenchConfig{Server: "127.0.0.1:1", Clients: 1, Requests: 1, Keyspace: 1, Timeout: time.Second}
	if _, err := RunBench(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i + 1)
	}

	tests := []struct {
		p    int
		want time.Duration
	}{
		{50, 50},
		{99, 99},
		{100, 100},
		{0, 1},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%d) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

// ============================================================
// Version tests
// ============================================================

func TestVersion_JSON(t *testing.T) {
	out, err := run(t, "127.0.0.1:1", "-o", "json", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	var info buildinfo.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}
