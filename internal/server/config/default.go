package config

import (
	"time"

	"github.com/yndnr/framekv-go/pkg/frame"
)

// Default configuration values.
const (
	DefaultFrameAddr   = "127.0.0.1:7379"
	DefaultMetricsAddr = "127.0.0.1:7380"

	DefaultStoreShards = 1

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultShutdownTimeout = 10 * time.Second
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Frame: FrameConfig{
				Addr:        DefaultFrameAddr,
				MaxPayload:  frame.DefaultMaxPayload,
				MaxElements: frame.DefaultMaxElements,
				MaxFrame:    frame.DefaultMaxFrame,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Addr:    DefaultMetricsAddr,
			},
		},
		Store: StoreSection{
			Shards: DefaultStoreShards,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Shutdown: ShutdownSection{
			Timeout: DefaultShutdownTimeout,
		},
	}
}
