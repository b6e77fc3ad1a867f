package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// flagValues receives raw flag input before layering.
type flagValues struct {
	cfg     Config
	tokens  string
	params  string
	ignore  string
	accept  string
	version bool
}

// newFlagSet registers every scan flag on a new FlagSet bound to v.
func newFlagSet(name string, v *flagValues, output io.Writer) *flag.FlagSet {
	d := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [flags] <url>\n\nFlags:\n", name)
		fs.PrintDefaults()
	}
	c := &v.cfg

	// === INPUT ===
	fs.StringVar(&c.Preset, "preset", "", "Scan preset: "+strings.Join(Presets(), ", "))
	fs.StringVar(&c.ConfigFile, "config", "", "YAML configuration file")
	fs.StringVar(&v.tokens, "tokens", "", "Additional token keywords (comma-separated)")
	fs.StringVar(&v.params, "params", "", "Additional probe parameter names (comma-separated)")
	fs.StringVar(&v.ignore, "ignore", "", "Additional script src substrings to skip (comma-separated)")

	// === EXECUTION ===
	fs.IntVar(&c.Threads, "threads", d.Threads, "Maximum concurrent script fetches")
	fs.IntVar(&c.Threads, "t", d.Threads, "Threads (alias)")
	fs.IntVar(&c.ProbeThreads, "probe-threads", 0, "Maximum concurrent probes (0 = threads)")
	fs.DurationVar(&c.FetchTimeout, "timeout", d.FetchTimeout, "Page and script fetch timeout")
	fs.DurationVar(&c.ProbeTimeout, "probe-timeout", d.ProbeTimeout, "Parameter probe timeout")
	fs.DurationVar(&c.Deadline, "deadline", 0, "Overall scan deadline (0 = none)")
	fs.Float64Var(&c.RateLimit, "rate-limit", 0, "Max requests per second (0 = unlimited)")
	fs.Float64Var(&c.RateLimit, "rl", 0, "Rate limit (alias)")
	fs.IntVar(&c.Burst, "burst", d.Burst, "Rate limiter burst")

	// === FUZZING ===
	fs.BoolVar(&c.NoFuzz, "no-fuzz", false, "Skip parameter probing")
	fs.StringVar(&v.accept, "accept-status", "", "Probe statuses counted as discovered (default 200,403,500)")
	fs.StringVar(&c.ProbeValue, "probe-value", d.ProbeValue, "Value assigned to probed parameters")

	// === NETWORK ===
	fs.StringVar(&c.UserAgent, "user-agent", d.UserAgent, "User-Agent for every request")
	fs.StringVar(&c.UserAgent, "ua", d.UserAgent, "User-Agent (alias)")
	fs.StringVar(&c.Proxy, "proxy", "", "HTTP/SOCKS5 proxy URL")
	fs.StringVar(&c.Proxy, "x", "", "Proxy (alias)")
	fs.BoolVar(&c.Impersonate, "impersonate", false, "Use a Chrome TLS fingerprint")
	fs.BoolVar(&c.Insecure, "insecure", false, "Skip TLS verification")
	fs.BoolVar(&c.Insecure, "k", false, "Skip TLS (alias)")
	fs.BoolVar(&c.Render, "render", false, "Fetch the page with headless Chrome")
	fs.Int64Var(&c.MaxBodySize, "max-body", d.MaxBodySize, "Maximum bytes read per response")

	// === OUTPUT ===
	fs.StringVar(&c.OutputDir, "output-dir", d.OutputDir, "Report directory")
	fs.StringVar(&c.OutputDir, "o", d.OutputDir, "Report directory (alias)")
	fs.StringVar(&c.Template, "template", "", "Also render a text report: built-in name or template file")
	fs.BoolVar(&c.PDF, "pdf", false, "Also write a PDF report")
	fs.BoolVar(&c.JSON, "json", false, "Print the report JSON to stdout")
	fs.BoolVar(&c.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&c.Verbose, "v", false, "Verbose (alias)")
	fs.BoolVar(&c.Silent, "silent", false, "Silent mode - errors only")
	fs.BoolVar(&c.Silent, "s", false, "Silent (alias)")
	fs.BoolVar(&c.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&c.NoColor, "nc", false, "No color (alias)")
	fs.BoolVar(&v.version, "version", false, "Print version and exit")

	// === TELEMETRY ===
	fs.StringVar(&c.MetricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", "", "OTLP/gRPC trace collector host:port")
	fs.BoolVar(&c.OTLPInsecure, "otlp-insecure", false, "Connect to the collector without TLS")

	return fs
}

// Parse builds a Config from args (without the program name). The first
// positional argument is the target; flags may appear before or after it.
// Layers are applied as defaults, then --preset, then --config, then
// every flag given explicitly.
func Parse(name string, args []string, output io.Writer) (*Config, error) {
	var v flagValues
	fs := newFlagSet(name, &v, output)

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if v.version {
		return nil, ErrVersion
	}
	if len(positional) > 1 {
		return nil, fmt.Errorf("%w: expected one target URL, got %d arguments", ErrInvalidConfig, len(positional))
	}

	cfg := Default()
	if v.cfg.Preset != "" {
		p, err := LoadPreset(v.cfg.Preset)
		if err != nil {
			return nil, err
		}
		cfg.Apply(p)
		cfg.Preset = v.cfg.Preset
	}
	if v.cfg.ConfigFile != "" {
		f, err := LoadFile(v.cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.Apply(f)
		cfg.ConfigFile = v.cfg.ConfigFile
	}

	var overlayErr error
	fs.Visit(func(f *flag.Flag) {
		if err := overlay(cfg, &v, f.Name); err != nil && overlayErr == nil {
			overlayErr = err
		}
	})
	if overlayErr != nil {
		return nil, overlayErr
	}
	if len(positional) == 1 {
		cfg.Target = positional[0]
	}
	return cfg, nil
}

// overlay copies one explicitly set flag from v onto cfg.
func overlay(cfg *Config, v *flagValues, name string) error {
	src := &v.cfg
	switch name {
	case "tokens":
		cfg.ExtraTokens = append(cfg.ExtraTokens, SplitList(v.tokens)...)
	case "params":
		cfg.ExtraParams = append(cfg.ExtraParams, SplitList(v.params)...)
	case "ignore":
		cfg.ExtraIgnore = append(cfg.ExtraIgnore, SplitList(v.ignore)...)
	case "accept-status":
		codes, err := ParseStatuses(v.accept)
		if err != nil {
			return err
		}
		cfg.AcceptedStatuses = codes
	case "threads", "t":
		cfg.Threads = src.Threads
	case "probe-threads":
		cfg.ProbeThreads = src.ProbeThreads
	case "timeout":
		cfg.FetchTimeout = src.FetchTimeout
	case "probe-timeout":
		cfg.ProbeTimeout = src.ProbeTimeout
	case "deadline":
		cfg.Deadline = src.Deadline
	case "rate-limit", "rl":
		cfg.RateLimit = src.RateLimit
	case "burst":
		cfg.Burst = src.Burst
	case "no-fuzz":
		cfg.NoFuzz = src.NoFuzz
	case "probe-value":
		cfg.ProbeValue = src.ProbeValue
	case "user-agent", "ua":
		cfg.UserAgent = src.UserAgent
	case "proxy", "x":
		cfg.Proxy = src.Proxy
	case "impersonate":
		cfg.Impersonate = src.Impersonate
	case "insecure", "k":
		cfg.Insecure = src.Insecure
	case "render":
		cfg.Render = src.Render
	case "max-body":
		cfg.MaxBodySize = src.MaxBodySize
	case "output-dir", "o":
		cfg.OutputDir = src.OutputDir
	case "template":
		cfg.Template = src.Template
	case "pdf":
		cfg.PDF = src.PDF
	case "json":
		cfg.JSON = src.JSON
	case "verbose", "v":
		cfg.Verbose = src.Verbose
	case "silent", "s":
		cfg.Silent = src.Silent
	case "no-color", "nc":
		cfg.NoColor = src.NoColor
	case "metrics-addr":
		cfg.MetricsAddr = src.MetricsAddr
	case "otlp-endpoint":
		cfg.OTLPEndpoint = src.OTLPEndpoint
	case "otlp-insecure":
		cfg.OTLPInsecure = src.OTLPInsecure
	}
	return nil
}
