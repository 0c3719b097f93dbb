package tlsroots

import (
	"bytes"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/framekv-go/internal/infra/confloader"
)

func writePair(t *testing.T) (certFile, keyFile string) {
	t.Helper()
	dir := t.TempDir()
	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	if err := WriteSelfSigned(certFile, keyFile, time.Hour, "127.0.0.1"); err != nil {
		t.Fatalf("WriteSelfSigned() error = %v", err)
	}
	return certFile, keyFile
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================
// Reloader tests
// ============================================================

func TestNewReloader(t *testing.T) {
	certFile, keyFile := writePair(t)

	r, err := NewReloader(certFile, keyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewReloader() error = %v", err)
	}
	cert, _ := r.GetCertificate(nil)
	if cert == nil {
		t.Error("GetCertificate() = nil")
	}
	clientCert, _ := r.GetClientCertificate(nil)
	if clientCert != cert {
		t.Error("GetClientCertificate() differs from GetCertificate()")
	}
}

func TestNewReloader_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.pem")
	os.WriteFile(bad, []byte("invalid"), 0o600)

	tests := []struct {
		name string
		cert string
		key  string
	}{
		{"missing files", filepath.Join(dir, "a"), filepath.Join(dir, "b")},
		{"invalid pem", bad, bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewReloader(tt.cert, tt.key); err == nil {
				t.Error("NewReloader() error = nil")
			}
		})
	}
}

func TestReloader_FailedReloadKeepsOldPair(t *testing.T) {
	certFile, keyFile := writePair(t)
	r, err := NewReloader(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	before, _ := r.GetCertificate(nil)

	os.WriteFile(certFile, []byte("truncated"), 0o644)
	if err := r.Reload(); err == nil {
		t.Fatal("Reload() error = nil for corrupt cert")
	}
	if after, _ := r.GetCertificate(nil); after != before {
		t.Error("failed Reload() replaced the certificate")
	}
}

func TestReloader_WatchReloads(t *testing.T) {
	certFile, keyFile := writePair(t)
	r, err := NewReloader(certFile, keyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	before, _ := r.GetCertificate(nil)

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(quietLogger()), confloader.WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := r.Watch(w); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	w.StartAsync()

	if err := WriteSelfSigned(certFile, keyFile, time.Hour, "127.0.0.1"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		after, _ := r.GetCertificate(nil)
		if after != before && !bytes.Equal(after.Certificate[0], before.Certificate[0]) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("certificate not reloaded after file change")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// ============================================================
// Handshake tests
// ============================================================

func handshake(t *testing.T, serverCfg, clientCfg *tls.Config) error {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", serverCfg)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.(*tls.Conn).Handshake()
		io.Copy(io.Discard, c)
	}()

	c, err := tls.DialWithDialer(&net.Dialer{Timeout: 2 * time.Second}, "tcp", ln.Addr().String(), clientCfg)
	if err != nil {
		return err
	}
	defer c.Close()
	// With TLS 1.3 a rejected client certificate surfaces on first read.
	c.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, err = c.Read(make([]byte, 1))
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return nil
	}
	return err
}

func TestServerConfig_Handshake(t *testing.T) {
	certFile, keyFile := writePair(t)
	server, err := NewReloader(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	roots := NewEmptyPool()
	if err := roots.AddCertFile(certFile); err != nil {
		t.Fatal(err)
	}

	clientCertFile, clientKeyFile := writePair(t)
	client, err := NewReloader(clientCertFile, clientKeyFile)
	if err != nil {
		t.Fatal(err)
	}
	clientCAs := NewEmptyPool()
	if err := clientCAs.AddCertFile(clientCertFile); err != nil {
		t.Fatal(err)
	}

	withClientCert := roots.ClientConfig("")
	withClientCert.ServerName = "127.0.0.1"
	withClientCert.GetClientCertificate = client.GetClientCertificate

	plain := roots.ClientConfig("127.0.0.1")

	tests := []struct {
		name    string
		server  *tls.Config
		client  *tls.Config
		wantErr bool
	}{
		{"server auth", server.ServerConfig(nil), plain, false},
		{"untrusted server", server.ServerConfig(nil), NewEmptyPool().ClientConfig("127.0.0.1"), true},
		{"mutual", server.ServerConfig(clientCAs), withClientCert, false},
		{"missing client cert", server.ServerConfig(clientCAs), plain, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handshake(t, tt.server, tt.client)
			if (err != nil) != tt.wantErr {
				t.Errorf("handshake error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
