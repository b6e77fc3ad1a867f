package httpclient

import (
	"net/http"

	"golang.org/x/time/rate"
)

// middlewareTransport wraps a base RoundTripper to add request-level
// middleware:
//   - the fixed browser User-Agent on every request, redirects included
//   - a default Accept header when the caller set none
//   - client-wide rate limiting, waiting on the request context
type middlewareTransport struct {
	base      http.RoundTripper
	userAgent string
	limiter   *rate.Limiter
}

// RoundTrip implements http.RoundTripper with middleware.
func (m *middlewareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	// Clone the request to avoid mutating the caller's request.
	r := req.Clone(req.Context())
	if m.userAgent != "" {
		r.Header.Set("User-Agent", m.userAgent)
	}
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "*/*")
	}
	return m.base.RoundTrip(r)
}
