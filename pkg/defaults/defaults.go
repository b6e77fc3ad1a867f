// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for scan defaults.
//
// Usage:
//
//	cfg.Threads = defaults.Concurrency
//	req.Header.Set("User-Agent", defaults.UserAgent)
//
// Lists are returned as fresh copies so callers may append to them freely.
package defaults

// Version is the current jsenum version
const Version = "1.2.0"

// ToolName is used in banners, reports and MCP metadata.
const ToolName = "jsenum"

// ============================================================================
// CONCURRENCY SETTINGS
// ============================================================================

const (
	// Concurrency is the default number of simultaneous script fetches (5)
	Concurrency = 5

	// ConcurrencyMax is the upper bound accepted by config validation (200)
	ConcurrencyMax = 200
)

// ============================================================================
// HTTP SETTINGS
// ============================================================================

const (
	// UserAgent is the simulated browser sent with every request
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"

	// MaxRedirects caps redirect chains for page, script and probe requests
	MaxRedirects = 10

	// MaxBodySize bounds how much of a page or script body is read (10MB)
	MaxBodySize int64 = 10 * 1024 * 1024

	// AcceptHTML is sent with the page request
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// AcceptAny is sent with script and probe requests
	AcceptAny = "*/*"
)

// ============================================================================
// FUZZING SETTINGS
// ============================================================================

const (
	// ProbeValue is the value assigned to every probed parameter
	ProbeValue = "test"
)

// acceptedStatuses are response codes that count a probed parameter as discovered.
var acceptedStatuses = []int{200, 403, 500}

// AcceptedStatuses returns the default accepted probe statuses.
func AcceptedStatuses() []int {
	return append([]int(nil), acceptedStatuses...)
}

// ============================================================================
// WORDLISTS
// ============================================================================

var tokenKeywords = []string{"api_key", "apikey", "token", "auth", "secret", "access_token"}

var paramNames = []string{"id", "user", "name", "token", "auth", "search", "q", "lang", "ref", "type", "debug"}

// ignoreList holds substrings of third-party script URLs that are never fetched.
var ignoreList = []string{"jquery", "bootstrap", "analytics", "google"}

// TokenKeywords returns the built-in credential keywords.
func TokenKeywords() []string { return append([]string(nil), tokenKeywords...) }

// ParamNames returns the built-in probe parameter dictionary.
func ParamNames() []string { return append([]string(nil), paramNames...) }

// IgnoreList returns the built-in script ignore substrings.
func IgnoreList() []string { return append([]string(nil), ignoreList...) }

// ============================================================================
// OUTPUT
// ============================================================================

const (
	// ReportPrefix starts every report file name
	ReportPrefix = "scan_report_"

	// ReportTimeLayout is the timestamp layout appended to ReportPrefix
	ReportTimeLayout = "20060102_150405"

	// MetricsNamespace prefixes every Prometheus metric
	MetricsNamespace = "jsenum"
)
