package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// Session is one proxied automation session. A session belongs to exactly
// one action execution: the executor creates it, hands it to the user
// function, and closes it when the function returns. User functions must
// not retain it beyond their own return.
type Session interface {
	// HTTPClient returns a client whose traffic is routed through the
	// owning instance's SOCKS port.
	HTTPClient() *http.Client

	// Close releases the session's resources. Called exactly once by
	// the executor, on every path.
	Close() error
}

// Factory builds sessions routed through a given SOCKS address.
// This is the external collaborator boundary for the automation driver.
type Factory interface {
	NewSession(ctx context.Context, socksAddr string) (Session, error)
}

// Options configures session construction.
type Options struct {
	// Timeout bounds each request made through the session.
	Timeout time.Duration

	// Headless is carried for driver-backed factories that distinguish
	// headless operation. The HTTP factory ignores it.
	Headless bool
}

// SOCKSFactory is the default Factory. It builds HTTP sessions whose
// transport dials through a SOCKS5 proxy, configured the way Tor clients
// need: TLS verification off for self-signed onion certs, a small idle
// pool because each connection holds a circuit, and compression disabled
// to avoid size side channels.
type SOCKSFactory struct {
	opts Options
}

// NewSOCKSFactory creates the default session factory.
func NewSOCKSFactory(opts Options) *SOCKSFactory {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	return &SOCKSFactory{opts: opts}
}

// NewSession builds an HTTP session through the SOCKS5 proxy at socksAddr.
// No auth is offered; Tor's SOCKS port does not require it.
func (f *SOCKSFactory) NewSession(ctx context.Context, socksAddr string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	transport := &http.Transport{
		DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Hidden services use self-signed certs
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  true,
	}

	return &httpSession{
		client: &http.Client{
			Transport: transport,
			Timeout:   f.opts.Timeout,
		},
		transport: transport,
	}, nil
}

// httpSession wraps an HTTP client built for one action execution.
type httpSession struct {
	client    *http.Client
	transport *http.Transport
}

// HTTPClient implements Session.
func (s *httpSession) HTTPClient() *http.Client {
	return s.client
}

// Close implements Session. Idle connections are dropped so circuits are
// not held past the action that used them.
func (s *httpSession) Close() error {
	s.transport.CloseIdleConnections()
	return nil
}
