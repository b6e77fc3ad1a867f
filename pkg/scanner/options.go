package scanner

import (
	"strings"
	"time"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
)

// Options is the immutable per-scan configuration. Build it once and
// pass it to Scan; the scanner never reads process-wide settings.
type Options struct {
	// TokenKeywords drive the token matcher. Matching is case-insensitive.
	TokenKeywords []string

	// Params is the probe dictionary.
	Params []string

	// Concurrency caps in-flight script fetches.
	Concurrency int

	// ProbeConcurrency caps in-flight probes. Zero reuses Concurrency.
	ProbeConcurrency int

	FetchTimeout time.Duration
	ProbeTimeout time.Duration

	// Deadline bounds the whole scan. Zero means no deadline.
	Deadline time.Duration

	// AcceptedStatuses are the probe statuses that count as discovered.
	AcceptedStatuses []int

	// IgnoreList holds script src substrings that are never fetched.
	IgnoreList []string

	ProbeValue string
	UserAgent  string

	// NoFuzz skips the parameter probing phase.
	NoFuzz bool
}

// DefaultOptions returns the built-in settings.
func DefaultOptions() Options {
	return Options{
		TokenKeywords:    defaults.TokenKeywords(),
		Params:           defaults.ParamNames(),
		Concurrency:      defaults.Concurrency,
		FetchTimeout:     duration.FetchTimeout,
		ProbeTimeout:     duration.ProbeTimeout,
		AcceptedStatuses: defaults.AcceptedStatuses(),
		IgnoreList:       defaults.IgnoreList(),
		ProbeValue:       defaults.ProbeValue,
		UserAgent:        defaults.UserAgent,
	}
}

// WithTokenKeywords returns a copy of o whose keywords are o's keywords
// unioned with extra.
func (o Options) WithTokenKeywords(extra ...string) Options {
	o.TokenKeywords = Union(o.TokenKeywords, extra)
	return o
}

// WithParams returns a copy of o whose dictionary is o's dictionary
// unioned with extra.
func (o Options) WithParams(extra ...string) Options {
	o.Params = Union(o.Params, extra)
	return o
}

// normalized fills zero values with defaults and copies every slice, so
// the caller's Options cannot change under a running scan.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Concurrency < 1 {
		o.Concurrency = d.Concurrency
	}
	if o.ProbeConcurrency < 1 {
		o.ProbeConcurrency = o.Concurrency
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = d.FetchTimeout
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = d.ProbeTimeout
	}
	if len(o.AcceptedStatuses) == 0 {
		o.AcceptedStatuses = d.AcceptedStatuses
	}
	if o.ProbeValue == "" {
		o.ProbeValue = d.ProbeValue
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	o.TokenKeywords = Union(o.TokenKeywords, nil)
	o.Params = Union(o.Params, nil)
	o.IgnoreList = Union(o.IgnoreList, nil)
	o.AcceptedStatuses = append([]int(nil), o.AcceptedStatuses...)
	return o
}

// Union returns base followed by the members of extra not already
// present. Entries are trimmed and blanks dropped.
func Union(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
