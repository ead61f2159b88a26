// Package netutil builds the outbound HTTP client shared by the cloud
// providers.
package netutil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout caps a whole request including the body read. Provider
// calls are usually bounded tighter through their context.
const DefaultTimeout = 120 * time.Second

// NewHTTPClient returns an HTTP client for provider traffic. When
// socksAddr is non-empty every connection is tunnelled through that
// SOCKS5 proxy.
func NewHTTPClient(socksAddr string) (*http.Client, error) {
	if socksAddr == "" {
		return &http.Client{Timeout: DefaultTimeout}, nil
	}

	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks proxy %s: %w", socksAddr, err)
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   DefaultTimeout,
	}, nil
}
