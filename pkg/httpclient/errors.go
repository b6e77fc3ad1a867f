package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors for HTTP client failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrProxyConnect indicates the client failed to connect through
	// the configured proxy (SOCKS5, HTTP).
	ErrProxyConnect = errors.New("httpclient: proxy connection failed")

	// ErrDNS indicates a DNS resolution failure for the target host.
	ErrDNS = errors.New("httpclient: DNS resolution failed")

	// ErrTLS indicates a TLS handshake or certificate verification failure.
	ErrTLS = errors.New("httpclient: TLS handshake failed")

	// ErrTimeout indicates the per-request timeout elapsed.
	ErrTimeout = errors.New("httpclient: request timed out")

	// ErrInvalidProxy indicates a malformed or unsupported proxy URL.
	ErrInvalidProxy = errors.New("httpclient: invalid proxy URL")

	// ErrStatus marks a response whose status the caller did not accept.
	// Fetchers never return it; callers wrap it with StatusError.
	ErrStatus = errors.New("httpclient: unexpected status")
)

// StatusError wraps ErrStatus with the offending code.
func StatusError(code int) error {
	return fmt.Errorf("%w: %d", ErrStatus, code)
}

// classify wraps err with the matching sentinel so callers and metrics can
// tell failure modes apart. Unrecognised errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrDNS, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuth) || errors.As(err, &recordErr) ||
		strings.Contains(err.Error(), "tls: ") {
		return fmt.Errorf("%w: %v", ErrTLS, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "proxyconnect" {
		return fmt.Errorf("%w: %v", ErrProxyConnect, err)
	}
	return err
}

// Reason returns a short label for err suitable for logs and metric labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDNS):
		return "dns"
	case errors.Is(err, ErrTLS):
		return "tls"
	case errors.Is(err, ErrProxyConnect):
		return "proxy"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
