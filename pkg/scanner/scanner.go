// Package scanner runs one passive JavaScript recon scan: fetch the page,
// discover its scripts, extract findings, probe endpoints for parameters
// and assemble the report.
//
// Only an unreachable target page aborts a scan. Every other failure
// degrades to an empty contribution.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/waftester/jsenum/pkg/assets"
	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/extract"
	"github.com/waftester/jsenum/pkg/httpclient"
	"github.com/waftester/jsenum/pkg/jsfetch"
	"github.com/waftester/jsenum/pkg/metrics"
	"github.com/waftester/jsenum/pkg/paramfuzz"
	"github.com/waftester/jsenum/pkg/patterns"
	"github.com/waftester/jsenum/pkg/report"
	"github.com/waftester/jsenum/pkg/resolve"
	"github.com/waftester/jsenum/pkg/tracing"
)

var (
	// ErrInvalidTarget is returned for targets that are not absolute
	// http(s) URLs.
	ErrInvalidTarget = errors.New("scanner: invalid target")

	// ErrPageFetch is returned when the target page cannot be retrieved.
	// It is the only error that aborts a scan.
	ErrPageFetch = errors.New("scanner: could not fetch target")
)

// Target is the scanned URL and its scheme+host origin.
type Target struct {
	URL  string
	Base string
}

// NewTarget validates raw and derives its origin.
func NewTarget(raw string) (Target, error) {
	base, err := resolve.Origin(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	return Target{URL: raw, Base: base}, nil
}

// Scanner runs scans. One Scanner may run several scans concurrently.
type Scanner struct {
	fetcher httpclient.Fetcher
	page    httpclient.Fetcher
	library *patterns.Library
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records scan activity.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scanner) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithPageFetcher fetches the target page with f instead of the script
// fetcher, e.g. a headless browser that returns the rendered DOM.
func WithPageFetcher(f httpclient.Fetcher) Option {
	return func(s *Scanner) { s.page = f }
}

// WithClock sets the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a scanner that performs every request through f.
func New(f httpclient.Fetcher, opts ...Option) *Scanner {
	s := &Scanner{
		fetcher: f,
		library: patterns.Default(),
		logger:  slog.Default(),
		tracer:  tracing.Tracer(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.page == nil {
		s.page = s.fetcher
	}
	return s
}

// Scan runs the full pipeline against rawURL. It returns ErrInvalidTarget
// or ErrPageFetch; any other failure only shrinks the report. When ctx or
// the configured deadline ends mid-scan, the report holds what was
// gathered so far and is marked partial.
func (s *Scanner) Scan(ctx context.Context, rawURL string, opts Options) (*report.Report, error) {
	start := time.Now()
	target, err := NewTarget(rawURL)
	if err != nil {
		s.metrics.Scan(metrics.OutcomeError)
		return nil, err
	}
	opts = opts.normalized()

	scanID := uuid.NewString()
	log := s.logger.With(slog.String("scan_id", scanID), slog.String("target", target.URL))

	ctx, span := s.tracer.Start(ctx, "scan",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("scan.id", scanID),
			attribute.String("scan.target", target.URL),
			attribute.Int("scan.concurrency", opts.Concurrency),
		),
	)
	defer span.End()

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	page, err := s.fetchPage(ctx, target, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "page fetch failed")
		s.metrics.Scan(metrics.OutcomeFatal)
		log.Error("target page unreachable", slog.String("reason", httpclient.Reason(err)), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w %s: %w", ErrPageFetch, target.URL, err)
	}
	if page.StatusCode != http.StatusOK {
		log.Warn("target page returned non-200 status, scanning it anyway", slog.Int("status", page.StatusCode))
	}

	tokens, err := patterns.NewTokenPattern(opts.TokenKeywords)
	if err != nil {
		log.Debug("token extraction disabled", slog.String("error", err.Error()))
	}

	found := assets.Discover(page.Body)
	toFetch, skipped := assets.IgnoreList(opts.IgnoreList).Split(found.Scripts)
	for _, src := range skipped {
		s.metrics.Script(metrics.OutcomeIgnored)
		log.Debug("script ignored", slog.String("src", src))
	}
	urls := make([]string, 0, len(toFetch))
	for _, src := range toFetch {
		urls = append(urls, resolve.Script(src, target.Base))
	}
	log.Info("assets discovered",
		slog.Int("scripts", len(found.Scripts)),
		slog.Int("ignored", len(skipped)),
		slog.Int("inline", len(found.Inline)),
	)

	scripts := s.fetchScripts(ctx, target, urls, tokens, opts)
	findings := scripts.Findings
	for _, body := range found.Inline {
		findings.Merge(extract.ExtractWith(s.library, body, target.Base, tokens))
	}

	var fuzzed paramfuzz.Result
	if !opts.NoFuzz {
		fuzzed = s.fuzz(ctx, findings.Endpoints.Sorted(), opts)
	}

	rep := report.New(target.URL, findings, s.now()).WithFuzzed(fuzzed.Discovered)
	rep.ScanID = scanID
	rep.PageStatus = page.StatusCode
	rep.Partial = ctx.Err() != nil
	rep.Stats = &report.Stats{
		ScriptsDiscovered: len(found.Scripts),
		ScriptsIgnored:    len(skipped),
		ScriptsFetched:    scripts.Stats.Fetched,
		ScriptsFailed:     scripts.Stats.Failed,
		DuplicateBodies:   scripts.Stats.Duplicates,
		InlineScripts:     len(found.Inline),
		ProbesSent:        fuzzed.Stats.Sent,
		ProbesAccepted:    fuzzed.Stats.Accepted,
		DurationMs:        time.Since(start).Milliseconds(),
	}

	s.metrics.Findings("endpoint", len(rep.Endpoints))
	s.metrics.Findings("parameter", len(rep.Parameters))
	s.metrics.Findings("token", len(rep.Tokens))
	s.metrics.Scan(metrics.OutcomeOK)

	span.SetAttributes(
		attribute.Int("scan.endpoints", len(rep.Endpoints)),
		attribute.Int("scan.parameters", len(rep.Parameters)),
		attribute.Int("scan.tokens", len(rep.Tokens)),
		attribute.Bool("scan.graphql", rep.GraphQLUsed),
		attribute.Bool("scan.partial", rep.Partial),
	)
	log.Info("scan complete",
		slog.Int("endpoints", len(rep.Endpoints)),
		slog.Int("parameters", len(rep.Parameters)),
		slog.Int("tokens", len(rep.Tokens)),
		slog.Bool("graphql", rep.GraphQLUsed),
		slog.Bool("partial", rep.Partial),
	)
	return rep, nil
}

func (s *Scanner) fetchPage(ctx context.Context, target Target, opts Options) (*httpclient.Response, error) {
	ctx, span := s.tracer.Start(ctx, "fetch_page", trace.WithAttributes(attribute.String("http.url", target.URL)))
	defer span.End()

	headers := http.Header{
		"User-Agent": {opts.UserAgent},
		"Accept":     {defaults.AcceptHTML},
	}
	start := time.Now()
	resp, err := s.page.Get(ctx, target.URL, headers, opts.FetchTimeout)
	s.metrics.Observe(metrics.PhasePage, time.Since(start))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

func (s *Scanner) fetchScripts(ctx context.Context, target Target, urls []string, tokens *patterns.TokenPattern, opts Options) jsfetch.Result {
	ctx, span := s.tracer.Start(ctx, "fetch_scripts", trace.WithAttributes(attribute.Int("scripts.count", len(urls))))
	defer span.End()

	res := jsfetch.New(s.fetcher, target.Base, tokens,
		jsfetch.WithConcurrency(opts.Concurrency),
		jsfetch.WithTimeout(opts.FetchTimeout),
		jsfetch.WithHeaders(assetHeaders(opts)),
		jsfetch.WithLibrary(s.library),
		jsfetch.WithLogger(s.logger),
		jsfetch.WithMetrics(s.metrics),
	).Run(ctx, urls)

	span.AddEvent("scripts fetched", trace.WithAttributes(
		attribute.Int("scripts.fetched", res.Stats.Fetched),
		attribute.Int("scripts.failed", res.Stats.Failed),
	))
	return res
}

func (s *Scanner) fuzz(ctx context.Context, endpoints []string, opts Options) paramfuzz.Result {
	ctx, span := s.tracer.Start(ctx, "fuzz", trace.WithAttributes(
		attribute.Int("fuzz.endpoints", len(endpoints)),
		attribute.Int("fuzz.params", len(opts.Params)),
	))
	defer span.End()

	res := paramfuzz.New(s.fetcher, opts.Params,
		paramfuzz.WithConcurrency(opts.ProbeConcurrency),
		paramfuzz.WithTimeout(opts.ProbeTimeout),
		paramfuzz.WithHeaders(assetHeaders(opts)),
		paramfuzz.WithAcceptedStatuses(opts.AcceptedStatuses),
		paramfuzz.WithValue(opts.ProbeValue),
		paramfuzz.WithLogger(s.logger),
		paramfuzz.WithMetrics(s.metrics),
	).FuzzAll(ctx, endpoints)

	span.SetAttributes(
		attribute.Int("fuzz.sent", res.Stats.Sent),
		attribute.Int("fuzz.accepted", res.Stats.Accepted),
	)
	return res
}

func assetHeaders(opts Options) http.Header {
	return http.Header{
		"User-Agent": {opts.UserAgent},
		"Accept":     {defaults.AcceptAny},
	}
}
