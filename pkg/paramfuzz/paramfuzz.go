// Package paramfuzz probes endpoints with one extra query parameter at a
// time and records the names whose probe answers with an accepted status.
//
// Acceptance is a status-code heuristic only. Response bodies are never
// inspected, and a failed probe simply means "not discovered".
package paramfuzz

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
	"github.com/waftester/jsenum/pkg/httpclient"
	"github.com/waftester/jsenum/pkg/metrics"
)

// Stats counts probes across a FuzzAll call.
type Stats struct {
	Sent     int `json:"sent"`
	Accepted int `json:"accepted"`
	Errors   int `json:"errors"`
}

// Result maps each endpoint that accepted at least one parameter to the
// sorted accepted names.
type Result struct {
	Discovered map[string][]string
	Stats      Stats
}

// Parameters returns the union of every discovered name, sorted.
func (r Result) Parameters() []string {
	set := make(map[string]struct{})
	for _, names := range r.Discovered {
		for _, n := range names {
			set[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Fuzzer holds one scan's probe settings.
type Fuzzer struct {
	fetcher     httpclient.Fetcher
	params      []string
	accepted    map[int]struct{}
	value       string
	concurrency int
	timeout     time.Duration
	headers     http.Header
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Fuzzer.
type Option func(*Fuzzer)

// WithConcurrency bounds the number of probes in flight.
func WithConcurrency(n int) Option {
	return func(f *Fuzzer) { f.concurrency = n }
}

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fuzzer) { f.timeout = d }
}

// WithHeaders sets headers sent with every probe.
func WithHeaders(h http.Header) Option {
	return func(f *Fuzzer) { f.headers = h.Clone() }
}

// WithAcceptedStatuses replaces the accepted status set.
func WithAcceptedStatuses(codes []int) Option {
	return func(f *Fuzzer) {
		f.accepted = make(map[int]struct{}, len(codes))
		for _, c := range codes {
			f.accepted[c] = struct{}{}
		}
	}
}

// WithValue sets the value assigned to probed parameters.
func WithValue(v string) Option {
	return func(f *Fuzzer) { f.value = v }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fuzzer) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics records probe outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fuzzer) { f.metrics = m }
}

// New returns a fuzzer for the given dictionary. Blank and duplicate
// names are dropped.
func New(fetcher httpclient.Fetcher, params []string, opts ...Option) *Fuzzer {
	f := &Fuzzer{
		fetcher:     fetcher,
		params:      uniqueNames(params),
		value:       defaults.ProbeValue,
		concurrency: defaults.Concurrency,
		timeout:     duration.ProbeTimeout,
		logger:      slog.Default(),
	}
	WithAcceptedStatuses(defaults.AcceptedStatuses())(f)
	for _, opt := range opts {
		opt(f)
	}
	if f.concurrency < 1 {
		f.concurrency = 1
	}
	if f.headers == nil {
		f.headers = http.Header{"User-Agent": {defaults.UserAgent}}
	}
	return f
}

// Params returns the dictionary in use.
func (f *Fuzzer) Params() []string { return append([]string(nil), f.params...) }

// ProbeURL appends name=value to endpoint, using '&' when endpoint
// already carries a query string and '?' otherwise.
func ProbeURL(endpoint, name, value string) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + name + "=" + value
}

// Fuzz probes a single endpoint and returns the accepted names, sorted.
func (f *Fuzzer) Fuzz(ctx context.Context, endpoint string) []string {
	return f.FuzzAll(ctx, []string{endpoint}).Discovered[endpoint]
}

// FuzzAll probes every endpoint with every dictionary name. Probes run
// concurrently up to the configured bound. When ctx ends, probes not yet
// started are dropped and the partial result is returned.
func (f *Fuzzer) FuzzAll(ctx context.Context, endpoints []string) Result {
	var (
		mu    sync.Mutex
		found = make(map[string]map[string]struct{})
		stats Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

submit:
	for _, ep := range endpoints {
		for _, name := range f.params {
			if gctx.Err() != nil {
				break submit
			}
			ep, name := ep, name
			g.Go(func() error {
				ok, err := f.probe(gctx, ep, name)
				mu.Lock()
				defer mu.Unlock()
				stats.Sent++
				switch {
				case err != nil:
					stats.Errors++
				case ok:
					stats.Accepted++
					if found[ep] == nil {
						found[ep] = make(map[string]struct{})
					}
					found[ep][name] = struct{}{}
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	res := Result{Discovered: make(map[string][]string, len(found)), Stats: stats}
	for ep, names := range found {
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		res.Discovered[ep] = list
	}
	return res
}

func (f *Fuzzer) probe(ctx context.Context, endpoint, name string) (bool, error) {
	target := ProbeURL(endpoint, name, f.value)

	start := time.Now()
	code, err := f.status(ctx, target)
	f.metrics.Observe(metrics.PhaseProbe, time.Since(start))

	if err != nil {
		f.metrics.Probe(metrics.OutcomeError)
		f.logger.Debug("probe failed",
			slog.String("url", target),
			slog.String("reason", httpclient.Reason(err)),
			slog.String("error", err.Error()),
		)
		return false, err
	}

	_, ok := f.accepted[code]
	if ok {
		f.metrics.Probe(metrics.OutcomeAccepted)
		f.logger.Debug("parameter accepted", slog.String("url", target), slog.Int("status", code))
	} else {
		f.metrics.Probe(metrics.OutcomeRejected)
	}
	return ok, nil
}

func (f *Fuzzer) status(ctx context.Context, target string) (int, error) {
	if sf, ok := f.fetcher.(httpclient.StatusFetcher); ok {
		return sf.Status(ctx, target, f.headers, f.timeout)
	}
	resp, err := f.fetcher.Get(ctx, target, f.headers, f.timeout)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
