package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/framekv-go/internal/infra/buildinfo"
	"github.com/yndnr/framekv-go/internal/infra/confloader"
	"github.com/yndnr/framekv-go/internal/infra/shutdown"
	"github.com/yndnr/framekv-go/internal/infra/tlsroots"
	"github.com/yndnr/framekv-go/internal/server/config"
	"github.com/yndnr/framekv-go/internal/server/frameserver"
	"github.com/yndnr/framekv-go/internal/server/httpserver"
	"github.com/yndnr/framekv-go/internal/storage/memory"
	"github.com/yndnr/framekv-go/internal/telemetry/logger"
	"github.com/yndnr/framekv-go/internal/telemetry/metric"
	"github.com/yndnr/framekv-go/pkg/frame"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "framekv-server",
		Usage:   "in-memory key/value server speaking the frame protocol",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML or TOML configuration file",
				EnvVars: []string{"FRAMEKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "frame listener address (overrides server.frame.addr)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides log.level)",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, options{
				configFile: c.String("config"),
				addr:       c.String("addr"),
				logLevel:   c.String("log-level"),
			})
		},
	}
}

// options carries the command line into run.
type options struct {
	configFile string
	addr       string
	logLevel   string
}

// overrides maps command line flags onto config keys.
func (o options) overrides() map[string]any {
	m := make(map[string]any)
	if o.addr != "" {
		m["server.frame.addr"] = o.addr
	}
	if o.logLevel != "" {
		m["log.level"] = o.logLevel
	}
	return m
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting framekv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", opts.configFile)

	store := memory.New(memory.WithShards(cfg.Store.Shards))
	log.Info("store ready", "shards", store.Shards())

	metrics := metric.NewRegistry()
	metrics.MustRegister(metric.NewStoreCollector(store))

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogLogger))
	if err != nil {
		return fmt.Errorf("init watcher: %w", err)
	}
	defer watcher.Stop()

	fc := frameConfig(cfg)
	if cfg.Server.Frame.TLS.Enabled() {
		if fc.TLS, err = serverTLS(cfg.Server.Frame.TLS, watcher, slogLogger); err != nil {
			return fmt.Errorf("init tls: %w", err)
		}
	}

	srv := frameserver.New(fc, store, slogLogger, frameserver.WithMetrics(metrics))

	shutdownHandler := shutdown.NewHandler(cfg.Shutdown.Timeout, slogLogger)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	shutdownHandler.OnShutdown("frame server", srv.Shutdown)

	if socket := cfg.Server.Local.Socket; socket != "" {
		local := frameserver.New(localConfig(fc, socket), store, slogLogger, frameserver.WithMetrics(metrics))
		if err := local.Start(ctx); err != nil {
			_ = srv.Shutdown(context.Background())
			return err
		}
		shutdownHandler.OnShutdown("local server", local.Shutdown)
	}

	if cfg.Server.Metrics.Enabled {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Status:  srv,
			Metrics: metrics,
			Logger:  slogLogger,
		})
		httpSrv := httpserver.New(cfg.Server.Metrics.Addr, router, slogLogger)
		if err := httpSrv.Start(); err != nil {
			_ = srv.Shutdown(context.Background())
			return fmt.Errorf("start http server: %w", err)
		}
		log.Info("http server listening", "addr", httpSrv.Addr().String())
		shutdownHandler.OnShutdown("http server", httpSrv.Shutdown)
	}

	if opts.configFile != "" {
		if err := watcher.Watch(opts.configFile); err != nil {
			log.Warn("config reload disabled", "error", err)
		} else {
			watchLogLevel(watcher, opts, slogLogger)
		}
	}
	watcher.StartAsync()
	shutdownHandler.OnShutdown("watcher", func(context.Context) error {
		return watcher.Stop()
	})

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads defaults, the optional file, FRAMEKV_ variables and
// command line overrides, in that order, then validates the result.
func loadConfig(opts options) (*config.ServerConfig, error) {
	cfg := config.Default()

	loaderOpts := []confloader.Option{confloader.WithOverrides(opts.overrides())}
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, confloader.WithConfigFile(opts.configFile))
	}

	if err := confloader.NewLoader(loaderOpts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger builds the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// frameConfig maps the loaded configuration onto the frame server.
func frameConfig(cfg *config.ServerConfig) frameserver.Config {
	fc := cfg.Server.Frame

	limits := frame.DefaultLimits()
	limits.MaxPayload = fc.MaxPayload
	limits.MaxElements = fc.MaxElements
	limits.MaxFrame = fc.MaxFrame

	return frameserver.Config{
		Addr:         fc.Addr,
		ReadTimeout:  fc.ReadTimeout,
		WriteTimeout: fc.WriteTimeout,
		IdleTimeout:  fc.IdleTimeout,
		RateLimit:    fc.RateLimit,
		RateBurst:    fc.RateBurst,
		Limits:       limits,
	}
}

// localConfig derives the Unix socket listener from the TCP one.
func localConfig(fc frameserver.Config, socket string) frameserver.Config {
	fc.Network = "unix"
	fc.Addr = socket
	fc.TLS = nil
	return fc
}

// serverTLS builds the listener TLS config. The key pair is reloaded when
// watcher reports a change to either file.
func serverTLS(cfg config.TLSConfig, watcher *confloader.Watcher, log *slog.Logger) (*tls.Config, error) {
	certs, err := tlsroots.NewReloader(cfg.CertFile, cfg.KeyFile, tlsroots.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := certs.Watch(watcher); err != nil {
		return nil, err
	}

	var clientCAs *tlsroots.Pool
	if cfg.ClientCAFile != "" {
		clientCAs = tlsroots.NewEmptyPool()
		if err := clientCAs.AddCertFile(cfg.ClientCAFile); err != nil {
			return nil, err
		}
	}
	return certs.ServerConfig(clientCAs), nil
}

// watchLogLevel reloads the configuration file on change. Only log.level
// takes effect without a restart.
func watchLogLevel(watcher *confloader.Watcher, opts options, log *slog.Logger) {
	configPath, err := filepath.Abs(opts.configFile)
	if err != nil {
		configPath = opts.configFile
	}
	watcher.OnChange(func(path string) {
		if filepath.Clean(path) != configPath {
			return
		}
		reloadLogLevel(opts, log)
	})
}

func reloadLogLevel(opts options, log *slog.Logger) {
	cfg, err := loadConfig(opts)
	if err != nil {
		log.Warn("config reload rejected", "error", err)
		return
	}
	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Warn("log level reload failed", "error", err)
		return
	}
	log.Info("log level reloaded", "level", cfg.Log.Level)
}
