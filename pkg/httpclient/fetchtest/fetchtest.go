// Package fetchtest provides an in-memory httpclient.Fetcher for tests.
package fetchtest

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/waftester/jsenum/pkg/httpclient"
)

// ErrUnreachable is returned for URLs the stub knows nothing about.
var ErrUnreachable = errors.New("fetchtest: unreachable")

// HandlerFunc answers a single request.
type HandlerFunc func(ctx context.Context, url string, headers http.Header) (*httpclient.Response, error)

// Stub is a concurrency-safe Fetcher backed by a HandlerFunc.
type Stub struct {
	Handler HandlerFunc

	// Delay is slept before each answer, honoring ctx.
	Delay time.Duration

	inflight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	calls []string
	heads []http.Header
}

var (
	_ httpclient.Fetcher       = (*Stub)(nil)
	_ httpclient.StatusFetcher = (*Stub)(nil)
)

// New returns a stub using h.
func New(h HandlerFunc) *Stub {
	return &Stub{Handler: h}
}

// Pages returns a stub serving bodies with status 200. Unknown URLs fail
// with ErrUnreachable.
func Pages(bodies map[string]string) *Stub {
	return New(func(_ context.Context, url string, _ http.Header) (*httpclient.Response, error) {
		body, ok := bodies[url]
		if !ok {
			return nil, ErrUnreachable
		}
		return &httpclient.Response{StatusCode: http.StatusOK, Body: body}, nil
	})
}

// Failing returns a stub whose every call fails with err.
func Failing(err error) *Stub {
	return New(func(context.Context, string, http.Header) (*httpclient.Response, error) {
		return nil, err
	})
}

// Get implements httpclient.Fetcher.
func (s *Stub) Get(ctx context.Context, url string, headers http.Header, _ time.Duration) (*httpclient.Response, error) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.heads = append(s.heads, headers.Clone())
	s.mu.Unlock()

	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Handler(ctx, url, headers)
}

// Status implements httpclient.StatusFetcher.
func (s *Stub) Status(ctx context.Context, url string, headers http.Header, timeout time.Duration) (int, error) {
	resp, err := s.Get(ctx, url, headers, timeout)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

// Calls returns every requested URL, sorted.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.calls...)
	sort.Strings(out)
	return out
}

// Headers returns the headers of every call in arrival order.
func (s *Stub) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.heads...)
}

// Peak returns the highest number of concurrent calls observed.
func (s *Stub) Peak() int { return int(s.peak.Load()) }
