package httpclient

import (
	"context"
	"fmt"
	"net"
	"time"

	utls "github.com/refraction-networking/utls"
)

// chromeHello is the ClientHello fingerprint presented when impersonating.
var chromeHello = utls.HelloChrome_Auto

// chromeTLSDialer returns a DialTLSContext that completes the handshake with
// a Chrome ClientHello. ALPN is pinned to http/1.1 because the handshake
// happens outside net/http, which then cannot speak HTTP/2 on the result.
func chromeTLSDialer(dialer contextDialer, skipVerify bool) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		spec, err := utls.UTLSIdToSpec(chromeHello)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: build client hello: %v", ErrTLS, err)
		}
		for _, ext := range spec.Extensions {
			if alpn, ok := ext.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = []string{"http/1.1"}
			}
		}

		uConn := utls.UClient(conn, &utls.Config{
			ServerName:         host,
			InsecureSkipVerify: skipVerify, //nolint:gosec // mirrors Config.InsecureSkipVerify
		}, utls.HelloCustom)
		if err := uConn.ApplyPreset(&spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: apply client hello: %v", ErrTLS, err)
		}

		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetDeadline(deadline)
		}
		if err := uConn.Handshake(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: %v", ErrTLS, err)
		}
		_ = conn.SetDeadline(time.Time{})
		return uConn, nil
	}
}
