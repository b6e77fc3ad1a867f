// Package jsfetch retrieves external scripts under a hard concurrency cap
// and folds every body through the extractor.
//
// A script that cannot be fetched, or answers with anything but 200,
// contributes nothing. Run always completes, even when every fetch fails.
package jsfetch

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
	"github.com/waftester/jsenum/pkg/extract"
	"github.com/waftester/jsenum/pkg/httpclient"
	"github.com/waftester/jsenum/pkg/metrics"
	"github.com/waftester/jsenum/pkg/patterns"
	"github.com/waftester/jsenum/pkg/workerpool"
)

// Stats counts what happened to the submitted URLs.
type Stats struct {
	Requested  int `json:"requested"`
	Fetched    int `json:"fetched"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicate_bodies"`
	Skipped    int `json:"skipped"`
}

// Result is the merged outcome of one Run.
type Result struct {
	Findings *extract.Findings
	Stats    Stats
}

// Orchestrator fetches scripts for a single scan.
type Orchestrator struct {
	fetcher     httpclient.Fetcher
	base        string
	tokens      *patterns.TokenPattern
	library     *patterns.Library
	concurrency int
	timeout     time.Duration
	headers     http.Header
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the maximum number of in-flight fetches.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// WithTimeout sets the per-script timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithHeaders sets headers sent with every script request.
func WithHeaders(h http.Header) Option {
	return func(o *Orchestrator) {
		o.headers = h.Clone()
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records fetch outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLibrary overrides the endpoint pattern library.
func WithLibrary(lib *patterns.Library) Option {
	return func(o *Orchestrator) {
		if lib != nil {
			o.library = lib
		}
	}
}

// New returns an orchestrator that resolves findings against base and
// extracts tokens with tokens.
func New(f httpclient.Fetcher, base string, tokens *patterns.TokenPattern, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:     f,
		base:        base,
		tokens:      tokens,
		library:     patterns.Default(),
		concurrency: defaults.Concurrency,
		timeout:     duration.FetchTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if o.headers == nil {
		o.headers = http.Header{"User-Agent": {defaults.UserAgent}}
	}
	return o
}

// Run fetches every unique URL in urls and returns the merged findings.
// Duplicate URLs are fetched once. When ctx ends, URLs not yet started
// are counted as skipped and contribute nothing.
func (o *Orchestrator) Run(ctx context.Context, urls []string) Result {
	unique := dedupe(urls)
	acc := extract.NewAccumulator()

	var (
		mu    sync.Mutex
		stats = Stats{Requested: len(unique)}
		seen  = make(map[uint64]struct{}, len(unique))
	)

	pool := workerpool.New(o.concurrency)
	err := workerpool.Each(ctx, pool, unique, func(ctx context.Context, u string) {
		body, ok := o.fetch(ctx, u)
		if !ok {
			mu.Lock()
			stats.Failed++
			mu.Unlock()
			return
		}

		sum := murmur3.Sum64([]byte(body))
		mu.Lock()
		stats.Fetched++
		_, dup := seen[sum]
		if dup {
			stats.Duplicates++
		} else {
			seen[sum] = struct{}{}
		}
		mu.Unlock()

		if dup {
			o.metrics.Script(metrics.OutcomeDuplicate)
			o.logger.Debug("duplicate script body", slog.String("url", u))
			return
		}
		acc.Add(extract.ExtractWith(o.library, body, o.base, o.tokens))
	})
	pool.Close()

	if err != nil {
		o.logger.Debug("script fetch stopped early", slog.String("error", err.Error()))
	}
	stats.Skipped = stats.Requested - stats.Fetched - stats.Failed

	return Result{Findings: acc.Snapshot(), Stats: stats}
}

func (o *Orchestrator) fetch(ctx context.Context, u string) (string, bool) {
	start := time.Now()
	resp, err := o.fetcher.Get(ctx, u, o.headers, o.timeout)
	o.metrics.Observe(metrics.PhaseScript, time.Since(start))

	if err == nil && resp.StatusCode != http.StatusOK {
		err = httpclient.StatusError(resp.StatusCode)
	}
	if err != nil {
		o.metrics.Script(metrics.OutcomeFailed)
		o.logger.Debug("script fetch failed",
			slog.String("url", u),
			slog.String("reason", httpclient.Reason(err)),
			slog.String("error", err.Error()),
		)
		return "", false
	}
	o.metrics.Script(metrics.OutcomeOK)
	return resp.Body, true
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
