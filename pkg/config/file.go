package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/waftester/jsenum/presets"
)

// File is one YAML configuration layer: a bundled preset or a --config
// file. Nil fields leave the lower layer untouched. List fields add to
// the lower layer, except AcceptStatus which replaces it.
type File struct {
	Target string `yaml:"target"`

	Tokens []string `yaml:"tokens"`
	Params []string `yaml:"params"`
	Ignore []string `yaml:"ignore"`

	Threads      *int           `yaml:"threads"`
	ProbeThreads *int           `yaml:"probe_threads"`
	FetchTimeout *time.Duration `yaml:"fetch_timeout"`
	ProbeTimeout *time.Duration `yaml:"probe_timeout"`
	Deadline     *time.Duration `yaml:"deadline"`
	RateLimit    *float64       `yaml:"rate_limit"`
	Burst        *int           `yaml:"burst"`
	AcceptStatus []int          `yaml:"accept_status"`
	NoFuzz       *bool          `yaml:"no_fuzz"`
	ProbeValue   *string        `yaml:"probe_value"`

	UserAgent   *string `yaml:"user_agent"`
	Proxy       *string `yaml:"proxy"`
	Impersonate *bool   `yaml:"impersonate"`
	Insecure    *bool   `yaml:"insecure"`
	Render      *bool   `yaml:"render"`
	MaxBodySize *int64  `yaml:"max_body_size"`

	OutputDir *string `yaml:"output_dir"`
	Template  *string `yaml:"template"`
	PDF       *bool   `yaml:"pdf"`

	MetricsAddr  *string `yaml:"metrics_addr"`
	OTLPEndpoint *string `yaml:"otlp_endpoint"`
	OTLPInsecure *bool   `yaml:"otlp_insecure"`
}

// ParseFile decodes a YAML layer. Unknown keys are rejected so typos
// do not pass silently.
func ParseFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &f, nil
}

// LoadFile reads and decodes a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Presets returns the names of the bundled presets, sorted.
func Presets() []string {
	entries, err := fs.ReadDir(presets.FS, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LoadPreset decodes a bundled preset by name.
func LoadPreset(name string) (*File, error) {
	data, err := presets.FS.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownPreset, name, strings.Join(Presets(), ", "))
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", name, err)
	}
	return f, nil
}

// Apply overlays f onto c.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	if f.Target != "" {
		c.Target = f.Target
	}
	c.ExtraTokens = append(c.ExtraTokens, f.Tokens...)
	c.ExtraParams = append(c.ExtraParams, f.Params...)
	c.ExtraIgnore = append(c.ExtraIgnore, f.Ignore...)
	if len(f.AcceptStatus) > 0 {
		c.AcceptedStatuses = append([]int(nil), f.AcceptStatus...)
	}

	setInt(&c.Threads, f.Threads)
	setInt(&c.ProbeThreads, f.ProbeThreads)
	setInt(&c.Burst, f.Burst)
	setDuration(&c.FetchTimeout, f.FetchTimeout)
	setDuration(&c.ProbeTimeout, f.ProbeTimeout)
	setDuration(&c.Deadline, f.Deadline)
	if f.RateLimit != nil {
		c.RateLimit = *f.RateLimit
	}
	if f.MaxBodySize != nil {
		c.MaxBodySize = *f.MaxBodySize
	}

	setBool(&c.NoFuzz, f.NoFuzz)
	setBool(&c.Impersonate, f.Impersonate)
	setBool(&c.Insecure, f.Insecure)
	setBool(&c.Render, f.Render)
	setBool(&c.PDF, f.PDF)
	setBool(&c.OTLPInsecure, f.OTLPInsecure)

	setString(&c.ProbeValue, f.ProbeValue)
	setString(&c.UserAgent, f.UserAgent)
	setString(&c.Proxy, f.Proxy)
	setString(&c.OutputDir, f.OutputDir)
	setString(&c.Template, f.Template)
	setString(&c.MetricsAddr, f.MetricsAddr)
	setString(&c.OTLPEndpoint, f.OTLPEndpoint)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
