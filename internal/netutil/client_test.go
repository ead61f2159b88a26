package netutil

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHTTPClient_Direct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hc, err := NewHTTPClient("")
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	if hc.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v", hc.Timeout)
	}
	resp, err := hc.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestNewHTTPClient_SOCKSDialsProxy(t *testing.T) {
	// A listener that accepts and records the connection, standing in
	// for the proxy. The handshake fails, which is fine: the point is
	// that the client dialled the proxy and not the target.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	accepted := make(chan struct{}, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- struct{}{}
		conn.Close()
	}()

	hc, err := NewHTTPClient(ln.Addr().String())
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	tr, ok := hc.Transport.(*http.Transport)
	if !ok || tr.DialContext == nil {
		t.Fatalf("transport = %T, want *http.Transport with DialContext", hc.Transport)
	}
	if _, err := tr.DialContext(context.Background(), "tcp", "example.invalid:80"); err == nil {
		t.Error("expected handshake error")
	}
	select {
	case <-accepted:
	default:
		t.Error("proxy listener was never dialled")
	}
}
