package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/jsenum/pkg/assets"
	"github.com/waftester/jsenum/pkg/defaults"
)

func TestNewDefaults(t *testing.T) {
	r := New()
	assert.Equal(t, defaults.UserAgent, r.userAgent)
	assert.True(t, r.noSandbox)
	assert.NotNil(t, r.logger)

	r = New(WithUserAgent(""), WithSandbox(), WithProxy("http://127.0.0.1:8080"), WithSettle(time.Second))
	assert.Equal(t, defaults.UserAgent, r.userAgent)
	assert.False(t, r.noSandbox)
	assert.Equal(t, "http://127.0.0.1:8080", r.proxy)
	assert.Equal(t, time.Second, r.settle)
}

func TestAllocatorOptions(t *testing.T) {
	base := len(New(WithSandbox()).allocatorOptions("/bin/chrome"))
	withExtras := len(New(WithProxy("http://p:1")).allocatorOptions("/bin/chrome"))
	assert.Equal(t, base+2, withExtras)
}

func TestGetMissingExecutable(t *testing.T) {
	r := New(WithExecPath(filepath.Join(t.TempDir(), "no-chrome")))
	_, err := r.Get(context.Background(), "https://example.com", nil, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBrowser)
}

func TestExtraHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("User-Agent", "ua")
	h.Set("Accept", "*/*")
	h.Add("X-Multi", "a")
	h.Add("X-Multi", "b")
	h["X-Empty"] = nil

	got := extraHeaders(h)
	assert.Equal(t, network.Headers{"Accept": "*/*", "X-Multi": "a, b"}, got)
}

func TestResponseHeader(t *testing.T) {
	got := responseHeader(network.Headers{
		"Content-Type": "text/html",
		"Set-Cookie":   "a=1\nb=2",
	})
	assert.Equal(t, "text/html", got.Get("Content-Type"))
	assert.Equal(t, []string{"a=1", "b=2"}, got.Values("Set-Cookie"))
}

func TestTreeKillCommand(t *testing.T) {
	name, args := treeKillCommand("windows", 4242)
	assert.Equal(t, "taskkill", name)
	assert.Equal(t, []string{"/F", "/T", "/PID", "4242"}, args)

	for _, goos := range []string{"linux", "darwin"} {
		name, args = treeKillCommand(goos, 4242)
		assert.Equal(t, "kill", name, goos)
		assert.Equal(t, []string{"-9", "--", "-4242"}, args, goos)
	}
}

func TestKillProcessTreeNil(t *testing.T) {
	assert.NotPanics(t, func() { killProcessTree(nil) })
}

func TestRenderDiscoversInjectedScript(t *testing.T) {
	execPath, err := FindExec()
	if err != nil {
		t.Skip("chrome not installed")
	}
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script>
var s = document.createElement('script');
s.src = '/static/late.js';
document.body.appendChild(s);
</script></body></html>`))
	}))
	defer srv.Close()

	r := New(WithExecPath(execPath))
	resp, err := r.Get(context.Background(), srv.URL, http.Header{"User-Agent": {defaults.UserAgent}}, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	found := assets.Discover(resp.Body)
	assert.Contains(t, found.Scripts, "/static/late.js")
}
