package httpclient

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		want   error
		reason string
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, ErrDNS, "dns"},
		{"deadline", context.DeadlineExceeded, ErrTimeout, "timeout"},
		{"proxy", &net.OpError{Op: "proxyconnect", Net: "tcp", Err: errors.New("refused")}, ErrProxyConnect, "proxy"},
		{"tls text", errors.New("remote error: tls: handshake failure"), ErrTLS, "tls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Equal(t, tt.reason, Reason(got))
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, classify(nil))
	plain := errors.New("connection reset")
	assert.Same(t, plain, classify(plain))
	assert.Equal(t, "transport", Reason(plain))
	assert.Equal(t, "canceled", Reason(context.Canceled))
	assert.Equal(t, "ok", Reason(nil))
	assert.Equal(t, "status", Reason(StatusError(404)))
	assert.ErrorIs(t, StatusError(500), ErrStatus)
}
