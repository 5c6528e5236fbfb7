// Package keepalive provides TCP keep-alive helpers shared by the image
// fetching client and the HTTP server.
package keepalive

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Dialer matches the invocation in http.DefaultTransport.
var Dialer = &net.Dialer{
	Timeout:   30 * time.Second,
	KeepAlive: 30 * time.Second,
}

// DialerFunc dials |addr| over |network| with |ctx|.
func DialerFunc(ctx context.Context, network, addr string) (net.Conn, error) {
	return Dialer.DialContext(ctx, network, addr)
}

// NewTransport returns an http.Transport which dials through Dialer.
// Compression negotiation is disabled: fetched content is returned as stored.
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           DialerFunc,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		DisableCompression:    true,
	}
}

// TCPListener sets TCP keep-alive timeouts on accepted connections, so that
// dead TCP connections (e.g. closing laptop mid-download) eventually go away.
type TCPListener struct {
	*net.TCPListener
}

func (ln TCPListener) Accept() (net.Conn, error) {
	var tc, err = ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	_ = tc.SetKeepAlive(true)
	_ = tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
