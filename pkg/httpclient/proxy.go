package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Supported proxy schemes:
//   - http://, https:// - CONNECT proxy handled by net/http
//   - socks5:// - SOCKS dialer
//   - socks5h:// - SOCKS5 with DNS resolved by the proxy
var proxySchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// ProxyConfig is a parsed proxy URL.
type ProxyConfig struct {
	URL     *url.URL
	Scheme  string
	IsSOCKS bool
}

// ParseProxyURL validates a proxy URL. An empty string means no proxy and
// yields nil, nil. A missing scheme defaults to http.
func ParseProxyURL(raw string) (*ProxyConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if !proxySchemes[scheme] {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidProxy)
	}
	if u.Port() == "" {
		port := "8080"
		if strings.HasPrefix(scheme, "socks") {
			port = "1080"
		}
		u.Host = net.JoinHostPort(u.Hostname(), port)
	}
	u.Scheme = scheme

	return &ProxyConfig{
		URL:     u,
		Scheme:  scheme,
		IsSOCKS: strings.HasPrefix(scheme, "socks"),
	}, nil
}

// contextDialer is satisfied by net.Dialer and the dialers below.
type contextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// socksDialer adapts an x/net/proxy dialer to contextDialer with a timeout.
type socksDialer struct {
	dialer  proxy.Dialer
	timeout time.Duration
}

func newSOCKSDialer(cfg *ProxyConfig, timeout time.Duration) (*socksDialer, error) {
	u := *cfg.URL
	// x/net/proxy has no socks5h scheme; SOCKS5 already sends hostnames
	// unresolved, which is what socks5h asks for.
	if u.Scheme == "socks5h" {
		u.Scheme = "socks5"
	}
	d, err := proxy.FromURL(&u, &net.Dialer{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}
	return &socksDialer{dialer: d, timeout: timeout}, nil
}

func (s *socksDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if cd, ok := s.dialer.(proxy.ContextDialer); ok {
		conn, err := cd.DialContext(ctx, network, address)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProxyConnect, err)
		}
		return conn, nil
	}

	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := s.dialer.Dial(network, address)
		ch <- result{conn, err}
	}()
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, fmt.Errorf("%w: %v", ErrProxyConnect, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProxyConnect, r.err)
		}
		return r.conn, nil
	}
}
