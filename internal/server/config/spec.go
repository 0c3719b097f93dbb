package config

import "time"

// ServerConfig is the root configuration for framekv-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Store    StoreSection    `koanf:"store"`
	Log      LogSection      `koanf:"log"`
	Shutdown ShutdownSection `koanf:"shutdown"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Frame   FrameConfig   `koanf:"frame"`
	Local   LocalConfig   `koanf:"local"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// LocalConfig configures an extra frame listener on a Unix domain socket
// for tools on the same host. It shares the store and the frame limits,
// but never uses TLS.
type LocalConfig struct {
	// Socket is the socket path. Empty disables the listener.
	Socket string `koanf:"socket"`
}

// FrameConfig configures the frame protocol listener.
type FrameConfig struct {
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading the rest of a frame once its first byte
	// has arrived. Zero disables it.
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout bounds flushing responses. Zero disables it.
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// IdleTimeout closes connections that send nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the per-connection command rate in commands per second.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	// RateBurst is the token bucket size. Zero derives it from RateLimit.
	RateBurst int `koanf:"rate_burst"`

	// MaxPayload caps a single Simple, Error or Bulk payload in bytes.
	MaxPayload int `koanf:"max_payload"`
	// MaxElements caps the element count of a request array.
	MaxElements int `koanf:"max_elements"`
	// MaxFrame caps the encoded size of one whole request in bytes.
	MaxFrame int `koanf:"max_frame"`

	TLS TLSConfig `koanf:"tls"`
}

// TLSConfig enables TLS on the frame listener when CertFile is set. The
// key pair is reloaded when either file changes.
type TLSConfig struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	// ClientCAFile, when set, requires clients to present a certificate
	// signed by one of its CAs.
	ClientCAFile string `koanf:"client_ca_file"`
}

// Enabled reports whether TLS is configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != ""
}

// MetricsConfig configures the HTTP endpoint serving /metrics and /health.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// StoreSection configures the in-memory store.
type StoreSection struct {
	// Shards is the number of lock shards, a power of two. One shard puts
	// the whole store behind a single mutex.
	Shards int `koanf:"shards"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ShutdownSection configures graceful shutdown.
type ShutdownSection struct {
	Timeout time.Duration `koanf:"timeout"`
}
