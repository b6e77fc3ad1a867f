package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/report"
)

// newSite serves a page with one script that references /api/users, and
// accepts the id parameter on that endpoint.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><script src="/static/app.js"></script><script>var apikey = "inline-1";</script></html>`)
	})
	mux.HandleFunc("/static/app.js", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `fetch("/api/users").then(r => r.json());`)
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("id") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func reportFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, defaults.ReportPrefix+"*.json"))
	require.NoError(t, err)
	return matches
}

func TestRunWritesReport(t *testing.T) {
	site := newSite(t)
	dir := t.TempDir()

	code, stdout, stderr := runCLI(t, site.URL+"/", "-o", dir, "--tokens", "apikey", "--no-color")
	require.Equal(t, defaults.ExitSuccess, code, stderr)

	files := reportFiles(t, dir)
	require.Len(t, files, 1)
	rep, err := report.Read(files[0])
	require.NoError(t, err)

	assert.Equal(t, site.URL+"/", rep.URL)
	assert.Contains(t, rep.Endpoints, "/api/users")
	assert.Contains(t, rep.Tokens, "apikey=inline-1")
	assert.Contains(t, rep.Parameters, "id")
	assert.Equal(t, []string{"id"}, rep.Fuzzed[site.URL+"/api/users"])

	assert.Contains(t, stdout, "/api/users")
	assert.Contains(t, stderr, "Report saved to")
}

func TestRunJSONToStdout(t *testing.T) {
	site := newSite(t)
	dir := t.TempDir()

	code, stdout, _ := runCLI(t, "--json", "--silent", "--no-fuzz", "-o", dir, site.URL+"/")
	require.Equal(t, defaults.ExitSuccess, code)
	assert.Contains(t, stdout, `"graphql_used": false`)
	assert.Len(t, reportFiles(t, dir), 1)
}

func TestRunExtraOutputs(t *testing.T) {
	site := newSite(t)
	dir := t.TempDir()

	code, _, stderr := runCLI(t, site.URL+"/", "-o", dir, "--no-fuzz", "--template", "markdown", "--pdf", "-s")
	require.Equal(t, defaults.ExitSuccess, code, stderr)

	md, _ := filepath.Glob(filepath.Join(dir, "*.md"))
	pdf, _ := filepath.Glob(filepath.Join(dir, "*.pdf"))
	assert.Len(t, md, 1)
	assert.Len(t, pdf, 1)
}

func TestRunPageFetchFailure(t *testing.T) {
	site := newSite(t)
	url := site.URL + "/"
	site.Close()
	dir := t.TempDir()

	code, _, stderr := runCLI(t, url, "-o", dir)
	assert.Equal(t, defaults.ExitFatal, code)
	assert.Contains(t, stderr, "[X]")
	assert.Empty(t, reportFiles(t, dir))
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing target", nil},
		{"bad scheme", []string{"ftp://example.com"}},
		{"bad threads", []string{"--threads", "0", "https://example.com"}},
		{"two targets", []string{"https://a.example", "https://b.example"}},
		{"unknown flag", []string{"--nope", "https://example.com"}},
		{"unknown preset", []string{"--preset", "nope", "https://example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, defaults.ExitUserError, code)
		})
	}
}

func TestRunVersionAndHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, defaults.ExitSuccess, code)
	assert.Contains(t, stdout, defaults.Version)

	code, _, stderr := runCLI(t, "-h")
	assert.Equal(t, defaults.ExitSuccess, code)
	assert.Contains(t, stderr, "Usage:")
}

func TestRunOutputDirError(t *testing.T) {
	site := newSite(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	code, _, _ := runCLI(t, site.URL+"/", "--no-fuzz", "-s", "-o", file)
	assert.Equal(t, defaults.ExitOutputError, code)
}

func TestMCPConfig(t *testing.T) {
	cfg, err := mcpConfig("quick", "")
	require.NoError(t, err)
	assert.Equal(t, "quick", cfg.Preset)
	assert.True(t, cfg.NoFuzz)

	_, err = mcpConfig("nope", "")
	assert.Error(t, err)
}

func TestMCPHelp(t *testing.T) {
	code, _, stderr := runCLI(t, "mcp", "-h")
	assert.Equal(t, defaults.ExitSuccess, code)
	assert.Contains(t, stderr, "scan_js")
}
