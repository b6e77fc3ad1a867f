package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/iohelper"
)

// Response is the part of an HTTP exchange the scanner looks at.
type Response struct {
	StatusCode int
	Body       string
	Header     http.Header
}

// Fetcher performs a GET under a per-call timeout. Implementations must be
// safe for concurrent use. Any status code is a successful fetch; only
// transport failures are errors.
type Fetcher interface {
	Get(ctx context.Context, url string, headers http.Header, timeout time.Duration) (*Response, error)
}

// StatusFetcher is implemented by fetchers that can return the status code
// without reading the body. Probes only need the status.
type StatusFetcher interface {
	Status(ctx context.Context, url string, headers http.Header, timeout time.Duration) (int, error)
}

// HTTPFetcher is the net/http Fetcher.
type HTTPFetcher struct {
	client  *http.Client
	maxBody int64
}

var (
	_ Fetcher       = (*HTTPFetcher)(nil)
	_ StatusFetcher = (*HTTPFetcher)(nil)
)

// NewFetcher builds a client from cfg and wraps it.
func NewFetcher(cfg Config) (*HTTPFetcher, error) {
	client, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return NewFetcherFromClient(client, cfg.MaxBodySize), nil
}

// NewFetcherFromClient wraps an existing client. A maxBody of zero means
// defaults.MaxBodySize.
func NewFetcherFromClient(client *http.Client, maxBody int64) *HTTPFetcher {
	if maxBody <= 0 {
		maxBody = defaults.MaxBodySize
	}
	return &HTTPFetcher{client: client, maxBody: maxBody}
}

// Client returns the underlying client.
func (f *HTTPFetcher) Client() *http.Client { return f.client }

// Get fetches rawURL and returns its status and body decoded to UTF-8.
// Bodies longer than the configured limit are truncated, not rejected.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string, headers http.Header, timeout time.Duration) (*Response, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.do(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}
	defer iohelper.DrainAndClose(resp.Body)

	body, err := iohelper.ReadBody(resp.Body, f.maxBody)
	if err != nil && !errors.Is(err, iohelper.ErrTruncated) {
		return nil, classify(fmt.Errorf("read body: %w", err))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       decode(body, resp.Header.Get("Content-Type")),
		Header:     resp.Header,
	}, nil
}

// Status fetches rawURL and returns only its status code.
func (f *HTTPFetcher) Status(ctx context.Context, rawURL string, headers http.Header, timeout time.Duration) (int, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.do(ctx, rawURL, headers)
	if err != nil {
		return 0, err
	}
	iohelper.DrainAndClose(resp.Body)
	return resp.StatusCode, nil
}

func (f *HTTPFetcher) do(ctx context.Context, rawURL string, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	for k, vals := range headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// decode converts body to UTF-8 using the Content-Type charset, a BOM or a
// <meta> declaration. Undecodable input is returned as-is.
func decode(body []byte, contentType string) string {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if enc == nil || name == "utf-8" {
		return string(body)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(out)
}
