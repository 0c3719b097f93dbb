package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeStatus struct {
	id    string
	addr  net.Addr
	conns int64
}

func (f *fakeStatus) ID() string         { return f.id }
func (f *fakeStatus) Addr() net.Addr     { return f.addr }
func (f *fakeStatus) ActiveConns() int64 { return f.conns }

func newTestHandler(st Status) *Handler {
	return New(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) Response {
	t.Helper()
	resp := Response{Data: data}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// ============================================================
// Health
// ============================================================

func TestHandler_Health(t *testing.T) {
	st := &fakeStatus{
		id:    "0b6f7c1e-0000-4000-8000-000000000001",
		addr:  &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7379},
		conns: 3,
	}
	h := newTestHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body HealthResponse
	resp := decode(t, rec, &body)
	if resp.Code != "OK" || resp.RequestID != "req-1" {
		t.Errorf("envelope = %+v, want code OK and request id req-1", resp)
	}
	if body.Status != "healthy" {
		t.Errorf("status = %q, want healthy", body.Status)
	}
	if body.ServerID != st.id {
		t.Errorf("server_id = %q, want %q", body.ServerID, st.id)
	}
	if body.Connections != 3 {
		t.Errorf("connections = %d, want 3", body.Connections)
	}
	if body.Address != "127.0.0.1:7379" {
		t.Errorf("address = %q, want 127.0.0.1:7379", body.Address)
	}
	if body.Version == "" {
		t.Error("version is empty")
	}
}

func TestHandler_Ready(t *testing.T) {
	tests := []struct {
		name string
		addr net.Addr
		want int
		code string
	}{
		{"bound", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}, http.StatusOK, "OK"},
		{"not bound", nil, http.StatusServiceUnavailable, "NOT_READY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeStatus{id: "x", addr: tt.addr})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if resp := decode(t, rec, nil); resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(&fakeStatus{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
