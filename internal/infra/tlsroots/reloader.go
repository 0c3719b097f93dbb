package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/yndnr/framekv-go/internal/infra/confloader"
)

// Reloader holds a certificate key pair and reloads it from disk on
// demand or when a confloader.Watcher reports a change. A failed reload
// keeps serving the previous pair.
type Reloader struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]
	logger   *slog.Logger
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithLogger sets the logger for reload events.
func WithLogger(logger *slog.Logger) ReloaderOption {
	return func(r *Reloader) {
		r.logger = logger
	}
}

// NewReloader loads the key pair and returns a Reloader serving it.
func NewReloader(certFile, keyFile string, opts ...ReloaderOption) (*Reloader, error) {
	r := &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return r, nil
}

// Reload reads the key pair from disk.
func (r *Reloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	r.cert.Store(&cert)
	return nil
}

// Watch reloads the pair whenever w reports a change to either file.
func (r *Reloader) Watch(w *confloader.Watcher) error {
	files := make(map[string]struct{}, 2)
	for _, f := range []string{r.certFile, r.keyFile} {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		if err := w.Watch(abs); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", abs, err)
		}
		files[abs] = struct{}{}
	}

	w.OnChange(func(path string) {
		if _, ok := files[filepath.Clean(path)]; !ok {
			return
		}
		if err := r.Reload(); err != nil {
			// Cert and key are often replaced one at a time; the second
			// write triggers another reload.
			r.logger.Warn("certificate reload failed", "cert_file", r.certFile, "error", err)
			return
		}
		r.logger.Info("certificate reloaded", "cert_file", r.certFile)
	})
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// GetClientCertificate implements tls.Config.GetClientCertificate.
func (r *Reloader) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// ServerConfig returns a server TLS config presenting the current pair.
// A non-nil clientCAs requires clients to present a certificate it
// verifies.
func (r *Reloader) ServerConfig(clientCAs *Pool) *tls.Config {
	cfg := &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	if clientCAs != nil {
		cfg.ClientCAs = clientCAs.Pool()
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg
}
