package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"strings"

	"github.com/yndnr/framekv-go/internal/telemetry/logger"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyFrame(&cfg.Server.Frame),
		verifyMetrics(&cfg.Server.Metrics, cfg.Server.Frame.Addr),
		verifyStore(&cfg.Store),
		verifyLog(&cfg.Log),
		verifyShutdown(&cfg.Shutdown),
	)
}

func verifyFrame(cfg *FrameConfig) error {
	var errs []error
	if err := verifyAddr("server.frame.addr", cfg.Addr); err != nil {
		errs = append(errs, err)
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		errs = append(errs, errors.New("server.frame timeouts must not be negative"))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.frame.rate_limit must not be negative"))
	}
	if cfg.RateBurst < 0 {
		errs = append(errs, errors.New("server.frame.rate_burst must not be negative"))
	}
	if cfg.MaxPayload < 1 || uint64(cfg.MaxPayload) > math.MaxUint32 {
		errs = append(errs, fmt.Errorf("server.frame.max_payload must be between 1 and %d", uint64(math.MaxUint32)))
	}
	if cfg.MaxFrame < cfg.MaxPayload {
		errs = append(errs, errors.New("server.frame.max_frame must be at least max_payload"))
	}
	if cfg.MaxElements < 3 {
		errs = append(errs, errors.New("server.frame.max_elements must be at least 3"))
	}
	if err := verifyTLS(&cfg.TLS); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func verifyTLS(cfg *TLSConfig) error {
	switch {
	case cfg.CertFile == "" && cfg.KeyFile == "" && cfg.ClientCAFile == "":
		return nil
	case cfg.CertFile == "" || cfg.KeyFile == "":
		return errors.New("server.frame.tls needs both cert_file and key_file")
	}
	return nil
}

func verifyMetrics(cfg *MetricsConfig, frameAddr string) error {
	if !cfg.Enabled {
		return nil
	}
	if err := verifyAddr("server.metrics.addr", cfg.Addr); err != nil {
		return err
	}
	if cfg.Addr == frameAddr && !strings.HasSuffix(cfg.Addr, ":0") {
		return fmt.Errorf("server.metrics.addr %q conflicts with server.frame.addr", cfg.Addr)
	}
	return nil
}

func verifyStore(cfg *StoreSection) error {
	if cfg.Shards < 1 || cfg.Shards&(cfg.Shards-1) != 0 {
		return fmt.Errorf("store.shards must be a power of two, got %d", cfg.Shards)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Format)
	}
}

func verifyShutdown(cfg *ShutdownSection) error {
	if cfg.Timeout <= 0 {
		return errors.New("shutdown.timeout must be positive")
	}
	return nil
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
