package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/extract"
	"github.com/waftester/jsenum/pkg/jsonutil"
)

// ErrNilReport is returned when a writer is handed a nil report.
var ErrNilReport = errors.New("report: nil report")

// Stats summarizes the work behind a report.
type Stats struct {
	ScriptsDiscovered int   `json:"scripts_discovered"`
	ScriptsIgnored    int   `json:"scripts_ignored"`
	ScriptsFetched    int   `json:"scripts_fetched"`
	ScriptsFailed     int   `json:"scripts_failed"`
	DuplicateBodies   int   `json:"duplicate_bodies"`
	InlineScripts     int   `json:"inline_scripts"`
	ProbesSent        int   `json:"probes_sent"`
	ProbesAccepted    int   `json:"probes_accepted"`
	DurationMs        int64 `json:"duration_ms"`
}

// Report is the snapshot written at the end of a scan. The first five
// fields are the persisted core; the rest are additive.
type Report struct {
	URL         string   `json:"url"`
	Endpoints   []string `json:"endpoints"`
	Parameters  []string `json:"parameters"`
	Tokens      []string `json:"tokens"`
	GraphQLUsed bool     `json:"graphql_used"`

	ScanID     string              `json:"scan_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	PageStatus int                 `json:"page_status,omitzero"`
	Fuzzed     map[string][]string `json:"fuzzed,omitempty"`
	Stats      *Stats              `json:"stats,omitempty"`
	Partial    bool                `json:"partial,omitzero"`
}

// New builds a report from merged findings. Every list is sorted and
// non-nil, so empty results serialize as [] rather than null.
func New(url string, f *extract.Findings, createdAt time.Time) *Report {
	if f == nil {
		f = extract.NewFindings()
	}
	return &Report{
		URL:         url,
		Endpoints:   f.Endpoints.Sorted(),
		Parameters:  f.Parameters.Sorted(),
		Tokens:      f.Tokens.Sorted(),
		GraphQLUsed: f.GraphQL,
		CreatedAt:   createdAt,
	}
}

// WithFuzzed returns a copy of r carrying the per-endpoint fuzz results.
// Names found by fuzzing are unioned into Parameters.
func (r *Report) WithFuzzed(fuzzed map[string][]string) *Report {
	c := r.clone()
	if len(fuzzed) == 0 {
		return c
	}
	params := extract.NewSet(c.Parameters...)
	c.Fuzzed = make(map[string][]string, len(fuzzed))
	for ep, names := range fuzzed {
		sorted := append([]string(nil), names...)
		sort.Strings(sorted)
		c.Fuzzed[ep] = sorted
		params.Add(names...)
	}
	c.Parameters = params.Sorted()
	return c
}

func (r *Report) clone() *Report {
	c := *r
	c.Endpoints = append([]string{}, r.Endpoints...)
	c.Parameters = append([]string{}, r.Parameters...)
	c.Tokens = append([]string{}, r.Tokens...)
	if r.Fuzzed != nil {
		c.Fuzzed = make(map[string][]string, len(r.Fuzzed))
		for k, v := range r.Fuzzed {
			c.Fuzzed[k] = append([]string(nil), v...)
		}
	}
	if r.Stats != nil {
		s := *r.Stats
		c.Stats = &s
	}
	return &c
}

// FileName returns the report file name for a creation time,
// scan_report_YYYYMMDD_HHMMSS.json.
func FileName(t time.Time) string {
	return defaults.ReportPrefix + t.Format(defaults.ReportTimeLayout) + ".json"
}

// JSON returns the indented JSON encoding of r.
func (r *Report) JSON() ([]byte, error) {
	if r == nil {
		return nil, ErrNilReport
	}
	return jsonutil.MarshalIndent(r, "", "  ")
}

// Write stores r as JSON in dir under FileName(r.CreatedAt) and returns
// the path. dir is created if needed; an empty dir means the working
// directory.
func Write(dir string, r *Report) (string, error) {
	if r == nil {
		return "", ErrNilReport
	}
	data, err := r.JSON()
	if err != nil {
		return "", fmt.Errorf("report: encode: %w", err)
	}
	return writeFile(dir, FileName(r.CreatedAt), data)
}

// Read loads a report written by Write.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read: %w", err)
	}
	var r Report
	if err := jsonutil.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: decode %s: %w", path, err)
	}
	return &r, nil
}

func writeFile(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// siblingName swaps the .json extension of FileName(t) for ext.
func siblingName(t time.Time, ext string) string {
	base := FileName(t)
	return base[:len(base)-len(".json")] + ext
}
