// Package config builds the immutable per-scan configuration from
// built-in defaults, an optional preset, an optional YAML file and
// command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
	"github.com/waftester/jsenum/pkg/httpclient"
	"github.com/waftester/jsenum/pkg/report"
	"github.com/waftester/jsenum/pkg/resolve"
	"github.com/waftester/jsenum/pkg/scanner"
)

// Config holds all CLI configuration options
type Config struct {
	// Target settings
	Target     string
	Preset     string // Bundled preset name (empty = none)
	ConfigFile string // YAML configuration file

	// Wordlists: built-ins plus these extras
	ExtraTokens []string
	ExtraParams []string
	ExtraIgnore []string

	// Execution settings
	Threads      int           // Concurrent script fetches (default: 5)
	ProbeThreads int           // Concurrent probes (0 = Threads)
	FetchTimeout time.Duration // Page and script timeout (default: 10s)
	ProbeTimeout time.Duration // Probe timeout (default: 5s)
	Deadline     time.Duration // Whole-scan deadline (0 = none)
	RateLimit    float64       // Requests per second (0 = unlimited)
	Burst        int           // Rate limiter burst (default: 1)

	// Fuzzing settings
	NoFuzz           bool
	AcceptedStatuses []int  // Probe statuses counted as discovered
	ProbeValue       string // Value of probed parameters

	// Network settings
	UserAgent   string
	Proxy       string // HTTP/SOCKS5 proxy URL
	Impersonate bool   // Chrome TLS fingerprint
	Insecure    bool   // Skip TLS verification
	Render      bool   // Fetch the page in headless Chrome
	MaxBodySize int64

	// Output settings
	OutputDir string // Report directory (default: .)
	Template  string // Extra text report: built-in name or file
	PDF       bool   // Also write a PDF report
	JSON      bool   // Print the report JSON to stdout
	Verbose   bool
	Silent    bool
	NoColor   bool

	// Telemetry
	MetricsAddr  string // Serve /metrics here while scanning
	OTLPEndpoint string // OTLP/gRPC trace collector
	OTLPInsecure bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Threads:          defaults.Concurrency,
		FetchTimeout:     duration.FetchTimeout,
		ProbeTimeout:     duration.ProbeTimeout,
		Burst:            1,
		AcceptedStatuses: defaults.AcceptedStatuses(),
		ProbeValue:       defaults.ProbeValue,
		UserAgent:        defaults.UserAgent,
		MaxBodySize:      defaults.MaxBodySize,
		OutputDir:        ".",
	}
}

// TokenKeywords returns the built-in keywords unioned with the extras.
func (c *Config) TokenKeywords() []string {
	return scanner.Union(defaults.TokenKeywords(), c.ExtraTokens)
}

// Params returns the built-in dictionary unioned with the extras.
func (c *Config) Params() []string {
	return scanner.Union(defaults.ParamNames(), c.ExtraParams)
}

// IgnoreList returns the built-in ignore list unioned with the extras.
func (c *Config) IgnoreList() []string {
	return scanner.Union(defaults.IgnoreList(), c.ExtraIgnore)
}

// ScanOptions converts c to the scanner's per-scan options.
func (c *Config) ScanOptions() scanner.Options {
	return scanner.Options{
		TokenKeywords:    c.TokenKeywords(),
		Params:           c.Params(),
		Concurrency:      c.Threads,
		ProbeConcurrency: c.ProbeThreads,
		FetchTimeout:     c.FetchTimeout,
		ProbeTimeout:     c.ProbeTimeout,
		Deadline:         c.Deadline,
		AcceptedStatuses: append([]int(nil), c.AcceptedStatuses...),
		IgnoreList:       c.IgnoreList(),
		ProbeValue:       c.ProbeValue,
		UserAgent:        c.UserAgent,
		NoFuzz:           c.NoFuzz,
	}
}

// HTTPConfig converts c to the HTTP client configuration.
func (c *Config) HTTPConfig() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.UserAgent = c.UserAgent
	hc.InsecureSkipVerify = c.Insecure
	hc.Proxy = c.Proxy
	hc.Impersonate = c.Impersonate
	hc.RateLimit = c.RateLimit
	hc.Burst = c.Burst
	hc.MaxBodySize = c.MaxBodySize
	maxConns := c.Threads
	if c.ProbeThreads > maxConns {
		maxConns = c.ProbeThreads
	}
	if maxConns > hc.MaxConnsPerHost {
		hc.MaxConnsPerHost = maxConns
	}
	return hc
}

// Validate reports the first problem with c.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("%w: target URL", ErrMissingRequired)
	}
	if _, err := resolve.Origin(c.Target); err != nil {
		return fmt.Errorf("%w: target: %v", ErrInvalidConfig, err)
	}
	if c.Threads < 1 || c.Threads > defaults.ConcurrencyMax {
		return fmt.Errorf("%w: threads must be between 1 and %d, got %d", ErrInvalidConfig, defaults.ConcurrencyMax, c.Threads)
	}
	if c.ProbeThreads < 0 || c.ProbeThreads > defaults.ConcurrencyMax {
		return fmt.Errorf("%w: probe-threads must be between 0 and %d, got %d", ErrInvalidConfig, defaults.ConcurrencyMax, c.ProbeThreads)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("%w: probe-timeout must be positive", ErrInvalidConfig)
	}
	if c.Deadline < 0 {
		return fmt.Errorf("%w: deadline must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate-limit must not be negative", ErrInvalidConfig)
	}
	if len(c.AcceptedStatuses) == 0 {
		return fmt.Errorf("%w: accept-status must name at least one status", ErrInvalidConfig)
	}
	for _, code := range c.AcceptedStatuses {
		if code < 100 || code > 599 {
			return fmt.Errorf("%w: status %d out of range 100-599", ErrInvalidConfig, code)
		}
	}
	if _, err := httpclient.ParseProxyURL(c.Proxy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Template != "" && !isBuiltinTemplate(c.Template) {
		if _, err := os.Stat(c.Template); err != nil {
			return fmt.Errorf("%w: template %q is neither built-in (%s) nor a readable file",
				ErrInvalidConfig, c.Template, strings.Join(report.Templates(), ", "))
		}
	}
	return nil
}

func isBuiltinTemplate(name string) bool {
	for _, t := range report.Templates() {
		if t == name {
			return true
		}
	}
	return false
}

// SplitList splits a comma-separated flag value, trimming entries and
// dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseStatuses parses a comma-separated list of HTTP status codes.
func ParseStatuses(s string) ([]int, error) {
	var codes []int
	for _, part := range SplitList(s) {
		code, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: status %q is not a number", ErrInvalidConfig, part)
		}
		codes = append(codes, code)
	}
	return codes, nil
}
