package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	return Parse("jsenum", args, io.Discard)
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := parse(t, "https://site.test")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://site.test", cfg.Target)
	assert.Equal(t, defaults.Concurrency, cfg.Threads)
	assert.Equal(t, duration.FetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, duration.ProbeTimeout, cfg.ProbeTimeout)
	assert.Equal(t, []int{200, 403, 500}, cfg.AcceptedStatuses)
	assert.Equal(t, defaults.TokenKeywords(), cfg.TokenKeywords())
	assert.Equal(t, defaults.ParamNames(), cfg.Params())
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Zero(t, cfg.Deadline)
	assert.False(t, cfg.NoFuzz)
}

func TestParse_CoreFlags(t *testing.T) {
	t.Parallel()

	cfg, err := parse(t, "https://site.test/app", "--tokens", "session, jwt,,", "--params", "page,id", "--threads", "12")
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Threads)
	assert.Equal(t, append(defaults.TokenKeywords(), "session", "jwt"), cfg.TokenKeywords())
	assert.Equal(t, append(defaults.ParamNames(), "page"), cfg.Params(), "duplicates collapse")
}

func TestParse_FlagsBeforeAndAfterTarget(t *testing.T) {
	t.Parallel()

	cfg, err := parse(t, "-v", "https://site.test", "-t", "3", "--no-fuzz")
	require.NoError(t, err)
	assert.Equal(t, "https://site.test", cfg.Target)
	assert.Equal(t, 3, cfg.Threads)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.NoFuzz)
}

func TestParse_TooManyTargets(t *testing.T) {
	t.Parallel()

	_, err := parse(t, "https://a.test", "https://b.test")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParse_HelpAndVersion(t *testing.T) {
	t.Parallel()

	_, err := parse(t, "-h")
	assert.True(t, errors.Is(err, flag.ErrHelp))

	_, err = parse(t, "--version")
	assert.ErrorIs(t, err, ErrVersion)
}

func TestParse_AcceptStatus(t *testing.T) {
	t.Parallel()

	cfg, err := parse(t, "https://site.test", "--accept-status", "200, 401")
	require.NoError(t, err)
	assert.Equal(t, []int{200, 401}, cfg.AcceptedStatuses)

	_, err = parse(t, "https://site.test", "--accept-status", "ok")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParse_Precedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jsenum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
threads: 7
probe_timeout: 3s
tokens: [bearer]
output_dir: reports
`), 0o644))

	// stealth sets threads 1 and rate_limit 2; the file overrides threads;
	// the flag overrides the file.
	cfg, err := parse(t, "https://site.test", "--preset", "stealth", "--config", path, "--probe-timeout", "1s")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Threads)
	assert.Equal(t, 2.0, cfg.RateLimit)
	assert.True(t, cfg.Impersonate)
	assert.Equal(t, time.Second, cfg.ProbeTimeout)
	assert.Equal(t, "reports", cfg.OutputDir)
	assert.Contains(t, cfg.TokenKeywords(), "bearer")
	assert.Equal(t, "stealth", cfg.Preset)
}

func TestParse_UnsetFlagsDoNotOverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threads: 9\nno_fuzz: true\n"), 0o644))

	cfg, err := parse(t, "--config", path, "https://site.test")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Threads)
	assert.True(t, cfg.NoFuzz)
}

func TestParse_TargetFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target: https://from-file.test\n"), 0o644))

	cfg, err := parse(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-file.test", cfg.Target)
}

func TestParse_UnknownPreset(t *testing.T) {
	t.Parallel()

	_, err := parse(t, "https://site.test", "--preset", "turbo")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestPresets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"default", "quick", "stealth", "thorough"}, Presets())
	for _, name := range Presets() {
		t.Run(name, func(t *testing.T) {
			f, err := LoadPreset(name)
			require.NoError(t, err)
			cfg := Default()
			cfg.Apply(f)
			cfg.Target = "https://site.test"
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	f, err := ParseFile(nil)
	require.NoError(t, err)
	assert.Nil(t, f.Threads)

	_, err = ParseFile([]byte("threds: 3\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig, "unknown keys are rejected")

	_, err = ParseFile([]byte("threads: [\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	f, err = ParseFile([]byte("deadline: 90s\naccept_status: [200]\n"))
	require.NoError(t, err)
	require.NotNil(t, f.Deadline)
	assert.Equal(t, 90*time.Second, *f.Deadline)
	assert.Equal(t, []int{200}, f.AcceptStatus)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		c := Default()
		c.Target = "https://site.test"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing target", func(c *Config) { c.Target = "" }, ErrMissingRequired},
		{"relative target", func(c *Config) { c.Target = "site.test/x" }, ErrInvalidConfig},
		{"zero threads", func(c *Config) { c.Threads = 0 }, ErrInvalidConfig},
		{"too many threads", func(c *Config) { c.Threads = defaults.ConcurrencyMax + 1 }, ErrInvalidConfig},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, ErrInvalidConfig},
		{"negative probe timeout", func(c *Config) { c.ProbeTimeout = -time.Second }, ErrInvalidConfig},
		{"negative deadline", func(c *Config) { c.Deadline = -time.Second }, ErrInvalidConfig},
		{"no statuses", func(c *Config) { c.AcceptedStatuses = nil }, ErrInvalidConfig},
		{"status out of range", func(c *Config) { c.AcceptedStatuses = []int{200, 700} }, ErrInvalidConfig},
		{"bad proxy", func(c *Config) { c.Proxy = "ftp://proxy:21" }, ErrInvalidConfig},
		{"missing template", func(c *Config) { c.Template = "/no/such/file.tmpl" }, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), tt.want)
		})
	}

	c := valid()
	c.Template = "markdown"
	assert.NoError(t, c.Validate())
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b ,"))
}

func TestScanOptions(t *testing.T) {
	t.Parallel()

	c := Default()
	c.Threads = 4
	c.ExtraIgnore = []string{"cdn.example"}
	c.NoFuzz = true
	o := c.ScanOptions()

	assert.Equal(t, 4, o.Concurrency)
	assert.True(t, o.NoFuzz)
	assert.Contains(t, o.IgnoreList, "jquery")
	assert.Contains(t, o.IgnoreList, "cdn.example")
	assert.Equal(t, c.UserAgent, o.UserAgent)
}

func TestHTTPConfig(t *testing.T) {
	t.Parallel()

	c := Default()
	c.Proxy = "socks5://127.0.0.1:9050"
	c.RateLimit = 3
	c.Insecure = true
	c.ProbeThreads = 60
	hc := c.HTTPConfig()

	assert.Equal(t, "socks5://127.0.0.1:9050", hc.Proxy)
	assert.Equal(t, 3.0, hc.RateLimit)
	assert.True(t, hc.InsecureSkipVerify)
	assert.Equal(t, 60, hc.MaxConnsPerHost)
}
