// Package httpclient provides the HTTP capability the scanner consumes:
// a pooled client factory plus a Fetcher that returns status and decoded
// body for a URL under a per-call timeout.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// UserAgent is sent with every request (default: defaults.UserAgent)
	UserAgent string

	// InsecureSkipVerify skips TLS certificate verification (default: true)
	InsecureSkipVerify bool

	// Proxy is an http, https, socks5 or socks5h proxy URL (optional)
	Proxy string

	// Impersonate dials TLS with a Chrome ClientHello via uTLS.
	// Ignored when an HTTP(S) proxy is configured.
	Impersonate bool

	// RateLimit caps requests per second across the client (0 = unlimited)
	RateLimit float64

	// Burst is the rate limiter bucket size (default: 1)
	Burst int

	// MaxRedirects caps followed redirects (default: 10, negative = none)
	MaxRedirects int

	// MaxBodySize bounds bodies read by the Fetcher (default: 10MB)
	MaxBodySize int64

	// MaxIdleConns is the maximum number of idle connections (default: 100)
	MaxIdleConns int

	// MaxConnsPerHost is the maximum connections per host (default: 25)
	MaxConnsPerHost int

	// DNSCacheTTL enables resolver caching when positive
	DNSCacheTTL time.Duration

	// DialTimeout is the TCP connect timeout (default: 10s)
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the TLS handshake timeout (default: 10s)
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns the configuration used for scans.
func DefaultConfig() Config {
	return Config{
		UserAgent:           defaults.UserAgent,
		InsecureSkipVerify:  true,
		MaxRedirects:        defaults.MaxRedirects,
		MaxBodySize:         defaults.MaxBodySize,
		MaxIdleConns:        100,
		MaxConnsPerHost:     25,
		DNSCacheTTL:         duration.DNSCacheTTL,
		DialTimeout:         duration.DialTimeout,
		TLSHandshakeTimeout: duration.TLSHandshake,
	}
}

// New creates an HTTP client from cfg. Zero values take the defaults above.
// The client has no overall timeout; callers bound each request with a
// context instead, so page, script and probe requests can share one pool.
func New(cfg Config) (*http.Client, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = defaults.MaxRedirects
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 25
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = duration.DialTimeout
	}
	if cfg.TLSHandshakeTimeout == 0 {
		cfg.TLSHandshakeTimeout = duration.TLSHandshake
	}

	var dialer contextDialer = &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: duration.KeepAlive,
	}
	if cfg.DNSCacheTTL > 0 {
		dialer = newCachingDialer(newDNSCache(cfg.DNSCacheTTL), cfg.DialTimeout)
	}

	transport := &http.Transport{
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       duration.IdleConn,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: duration.ExpectContinue,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // recon targets often use self-signed certs
		},
	}

	proxyCfg, err := ParseProxyURL(cfg.Proxy)
	if err != nil {
		return nil, err
	}
	switch {
	case proxyCfg == nil:
	case proxyCfg.IsSOCKS:
		socks, err := newSOCKSDialer(proxyCfg, cfg.DialTimeout)
		if err != nil {
			return nil, err
		}
		dialer = socks
	default:
		transport.Proxy = http.ProxyURL(proxyCfg.URL)
	}
	transport.DialContext = dialer.DialContext

	if cfg.Impersonate && (proxyCfg == nil || proxyCfg.IsSOCKS) {
		transport.DialTLSContext = chromeTLSDialer(dialer, cfg.InsecureSkipVerify)
		transport.ForceAttemptHTTP2 = false
	}

	var rt http.RoundTripper = transport
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	rt = &middlewareTransport{
		base:      rt,
		userAgent: cfg.UserAgent,
		limiter:   limiter,
	}

	return &http.Client{
		Transport:     rt,
		CheckRedirect: redirectPolicy(cfg.MaxRedirects),
	}, nil
}

// redirectPolicy follows up to max redirects and then hands the last
// response back to the caller instead of failing.
func redirectPolicy(max int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if max < 0 || len(via) > max {
			return http.ErrUseLastResponse
		}
		return nil
	}
}
