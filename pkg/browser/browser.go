// Package browser fetches pages through headless Chrome so that script tags
// inserted at runtime are visible to asset discovery.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
	"github.com/waftester/jsenum/pkg/httpclient"
)

var (
	// ErrNoBrowser is returned when no Chrome or Chromium executable is found.
	ErrNoBrowser = errors.New("browser: chrome executable not found")

	// ErrNavigate wraps failures while loading or reading the page.
	ErrNavigate = errors.New("browser: navigation failed")
)

// browserNames are looked up on PATH, in order.
var browserNames = []string{"chrome", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"}

// wellKnownPaths cover systems where the browser is installed off PATH.
var wellKnownPaths = []string{
	`/usr/bin/google-chrome`,
	`/usr/bin/chromium-browser`,
	`/usr/bin/chromium`,
	`/snap/bin/chromium`,
	`/Applications/Google Chrome.app/Contents/MacOS/Google Chrome`,
	`/Applications/Chromium.app/Contents/MacOS/Chromium`,
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// FindExec returns the first Chrome or Chromium executable it can locate.
func FindExec() (string, error) {
	for _, name := range browserNames {
		if path, err := exec.LookPath(name); err == nil && path != "" {
			return path, nil
		}
	}
	for _, path := range wellKnownPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNoBrowser
}

// Renderer is an httpclient.Fetcher backed by a fresh headless Chrome per
// call. The returned body is the serialized DOM after the page is ready.
type Renderer struct {
	execPath  string
	proxy     string
	userAgent string
	noSandbox bool
	settle    time.Duration
	logger    *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithExecPath pins the browser executable instead of searching for one.
func WithExecPath(path string) Option {
	return func(r *Renderer) { r.execPath = path }
}

// WithProxy routes browser traffic through proxyURL.
func WithProxy(proxyURL string) Option {
	return func(r *Renderer) { r.proxy = proxyURL }
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(r *Renderer) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// WithSandbox keeps Chrome's sandbox enabled. It is disabled by default
// so the renderer works inside containers.
func WithSandbox() Option {
	return func(r *Renderer) { r.noSandbox = false }
}

// WithSettle waits d after the body is ready, giving late scripts time to
// inject further tags.
func WithSettle(d time.Duration) Option {
	return func(r *Renderer) { r.settle = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		userAgent: defaults.UserAgent,
		noSandbox: true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// allocatorOptions builds the Chrome launch flags for execPath.
func (r *Renderer) allocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(r.userAgent),
	)
	if r.noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if r.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(r.proxy))
	}
	return opts
}

func (r *Renderer) resolveExec() (string, error) {
	if r.execPath == "" {
		return FindExec()
	}
	if _, err := os.Stat(r.execPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoBrowser, r.execPath)
	}
	return r.execPath, nil
}

// Get loads url in headless Chrome and returns the main document status
// with the rendered HTML. User-Agent in headers is applied through the
// launch flags; every other header is sent as an extra HTTP header.
// Timeouts shorter than duration.RenderTimeout are raised to it, since
// browser startup is part of the call.
func (r *Renderer) Get(ctx context.Context, url string, headers http.Header, timeout time.Duration) (*httpclient.Response, error) {
	execPath, err := r.resolveExec()
	if err != nil {
		return nil, err
	}
	if ua := headers.Get("User-Agent"); ua != "" && ua != r.userAgent {
		cp := *r
		cp.userAgent = ua
		r = &cp
	}

	if timeout > 0 {
		timeout = max(timeout, duration.RenderTimeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions(execPath)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer r.shutdown(browserCtx, browserCancel, allocCancel)

	start := time.Now()
	resp, err := chromedp.RunResponse(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(extraHeaders(headers)),
		chromedp.Navigate(url),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigate, url, err)
	}

	actions := []chromedp.Action{chromedp.WaitReady("body", chromedp.ByQuery)}
	if r.settle > 0 {
		actions = append(actions, chromedp.Sleep(r.settle))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigate, url, err)
	}

	out := &httpclient.Response{StatusCode: http.StatusOK, Body: html, Header: http.Header{}}
	if resp != nil {
		out.StatusCode = int(resp.Status)
		out.Header = responseHeader(resp.Headers)
	}
	r.logger.Debug("page rendered",
		slog.String("url", url),
		slog.Int("status", out.StatusCode),
		slog.Int("bytes", len(html)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// shutdown cancels the chromedp contexts and force-kills the browser if
// that does not finish within the shutdown grace period.
func (r *Renderer) shutdown(browserCtx context.Context, cancels ...context.CancelFunc) {
	var proc *os.Process
	if c := chromedp.FromContext(browserCtx); c != nil && c.Browser != nil {
		proc = c.Browser.Process()
	}

	done := make(chan struct{})
	go func() {
		for _, cancel := range cancels {
			cancel()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(duration.ShutdownGrace):
		r.logger.Warn("browser cleanup timed out, killing process tree")
		killProcessTree(proc)
	}
}

// extraHeaders converts request headers for Network.setExtraHTTPHeaders.
func extraHeaders(h http.Header) network.Headers {
	out := make(network.Headers, len(h))
	for name, values := range h {
		if strings.EqualFold(name, "User-Agent") || len(values) == 0 {
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// responseHeader converts CDP response headers to http.Header.
func responseHeader(h network.Headers) http.Header {
	out := make(http.Header, len(h))
	for name, v := range h {
		for _, line := range strings.Split(fmt.Sprint(v), "\n") {
			out.Add(name, line)
		}
	}
	return out
}
