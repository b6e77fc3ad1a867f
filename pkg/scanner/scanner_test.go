package scanner

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/waftester/jsenum/pkg/httpclient"
	"github.com/waftester/jsenum/pkg/httpclient/fetchtest"
	"github.com/waftester/jsenum/pkg/metrics"
)

const target = "https://site.test/app"

const page = `<html><head>
<script src="/static/app.js"></script>
<script src="https://code.jquery.com/jquery.min.js"></script>
<script src="//cdn.site.test/lib.js"></script>
<script>window.cfg = {endpoint: "/graphql"};</script>
</head><body></body></html>`

var scripts = map[string]string{
	"https://site.test/static/app.js": `fetch("/api/users"); axios.get('/api/orders?status=open'); const auth = {token: "abc123"};`,
	"https://cdn.site.test/lib.js":    `const client = new ApolloClient({uri: "https://api.site.test/graphql"});`,
}

// site serves page at target, the scripts above, and answers probes with
// 200 only for ?id= on /api/users.
func site(page string, scripts map[string]string) *fetchtest.Stub {
	return fetchtest.New(func(ctx context.Context, raw string, _ http.Header) (*httpclient.Response, error) {
		if raw == target {
			return &httpclient.Response{StatusCode: http.StatusOK, Body: page}, nil
		}
		if body, ok := scripts[raw]; ok {
			return &httpclient.Response{StatusCode: http.StatusOK, Body: body}, nil
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, err
		}
		if u.Path == "/api/users" && u.Query().Has("id") {
			return &httpclient.Response{StatusCode: http.StatusOK}, nil
		}
		if strings.HasSuffix(u.Path, ".js") {
			return nil, errors.New("connection refused")
		}
		return &httpclient.Response{StatusCode: http.StatusNotFound}, nil
	})
}

func fixedClock() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestScan_FullPipeline(t *testing.T) {
	t.Parallel()

	stub := site(page, scripts)
	m := metrics.New()
	s := New(stub, WithClock(fixedClock), WithMetrics(m))

	rep, err := s.Scan(context.Background(), target, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, target, rep.URL)
	assert.Equal(t, []string{
		"https://api.site.test/graphql",
		"https://site.test/api/orders?status=open",
		"https://site.test/api/users",
		"https://site.test/graphql",
	}, rep.Endpoints)
	assert.Equal(t, []string{"id", "status"}, rep.Parameters)
	assert.Equal(t, []string{"token=abc123"}, rep.Tokens)
	assert.True(t, rep.GraphQLUsed)
	assert.Equal(t, map[string][]string{"https://site.test/api/users": {"id"}}, rep.Fuzzed)

	assert.NotEmpty(t, rep.ScanID)
	assert.Equal(t, fixedClock(), rep.CreatedAt)
	assert.Equal(t, http.StatusOK, rep.PageStatus)
	assert.False(t, rep.Partial)

	require.NotNil(t, rep.Stats)
	assert.Equal(t, 3, rep.Stats.ScriptsDiscovered)
	assert.Equal(t, 1, rep.Stats.ScriptsIgnored)
	assert.Equal(t, 2, rep.Stats.ScriptsFetched)
	assert.Equal(t, 0, rep.Stats.ScriptsFailed)
	assert.Equal(t, 1, rep.Stats.InlineScripts)
	assert.Equal(t, 4*len(DefaultOptions().Params), rep.Stats.ProbesSent)
	assert.Equal(t, 1, rep.Stats.ProbesAccepted)

	for _, call := range stub.Calls() {
		assert.NotContains(t, call, "jquery", "ignored scripts must never be fetched")
	}
}

func TestScan_InvalidTarget(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "site.test", "ftp://site.test/x", "https://"} {
		_, err := New(fetchtest.Pages(nil)).Scan(context.Background(), raw, DefaultOptions())
		assert.ErrorIs(t, err, ErrInvalidTarget, raw)
	}
}

func TestScan_PageUnreachableIsFatal(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	s := New(fetchtest.Failing(httpclient.ErrDNS), WithMetrics(m))

	rep, err := s.Scan(context.Background(), target, DefaultOptions())
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, ErrPageFetch)
	assert.ErrorIs(t, err, httpclient.ErrDNS)
}

func TestScan_AllScriptFetchesFail(t *testing.T) {
	t.Parallel()

	page := `<script src="/a.js"></script><script src="/b.js"></script>`
	rep, err := New(site(page, nil)).Scan(context.Background(), target, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, rep.Endpoints)
	assert.Empty(t, rep.Parameters)
	assert.Empty(t, rep.Tokens)
	assert.False(t, rep.GraphQLUsed)
	assert.Equal(t, 2, rep.Stats.ScriptsFailed)
	assert.Zero(t, rep.Stats.ProbesSent)
}

func TestScan_NonOKPageIsStillMined(t *testing.T) {
	t.Parallel()

	stub := fetchtest.New(func(_ context.Context, raw string, _ http.Header) (*httpclient.Response, error) {
		if raw == target {
			return &httpclient.Response{StatusCode: http.StatusForbidden, Body: `<script>fetch("/hidden")</script>`}, nil
		}
		return &httpclient.Response{StatusCode: http.StatusNotFound}, nil
	})
	rep, err := New(stub).Scan(context.Background(), target, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://site.test/hidden"}, rep.Endpoints)
	assert.Equal(t, http.StatusForbidden, rep.PageStatus)
}

func TestScan_NoFuzz(t *testing.T) {
	t.Parallel()

	stub := site(page, scripts)
	opts := DefaultOptions()
	opts.NoFuzz = true

	rep, err := New(stub).Scan(context.Background(), target, opts)
	require.NoError(t, err)

	assert.Nil(t, rep.Fuzzed)
	assert.Equal(t, []string{"status"}, rep.Parameters)
	assert.Zero(t, rep.Stats.ProbesSent)
	assert.Len(t, stub.Calls(), 3, "page plus two scripts")
}

func TestScan_CustomKeywordsAndParams(t *testing.T) {
	t.Parallel()

	page := `<script>var sessionId = "s-42"; fetch("/api/users")</script>`
	opts := DefaultOptions().WithTokenKeywords("sessionid").WithParams("uid", "id")
	opts.Params = opts.Params[len(opts.Params)-1:]

	rep, err := New(site(page, nil)).Scan(context.Background(), target, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"sessionId=s-42"}, rep.Tokens)
	assert.Equal(t, []string{"uid"}, opts.Params)
	assert.Empty(t, rep.Fuzzed)
}

func TestScan_DeadlineKeepsPartialResults(t *testing.T) {
	t.Parallel()

	stub := fetchtest.New(func(ctx context.Context, raw string, _ http.Header) (*httpclient.Response, error) {
		if raw == target {
			return &httpclient.Response{StatusCode: http.StatusOK, Body: `<script src="/slow.js"></script><script>fetch("/inline")</script>`}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	opts := DefaultOptions()
	opts.Deadline = 100 * time.Millisecond

	rep, err := New(stub).Scan(context.Background(), target, opts)
	require.NoError(t, err)

	assert.True(t, rep.Partial)
	assert.Equal(t, []string{"https://site.test/inline"}, rep.Endpoints)
	assert.Equal(t, 1, rep.Stats.ScriptsFailed)
	assert.Empty(t, rep.Fuzzed)
}

func TestScan_PageFetcherOverride(t *testing.T) {
	t.Parallel()

	rendered := fetchtest.Pages(map[string]string{target: `<script>fetch("/rendered")</script>`})
	plain := site("", nil)

	opts := DefaultOptions()
	opts.NoFuzz = true
	rep, err := New(plain, WithPageFetcher(rendered)).Scan(context.Background(), target, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://site.test/rendered"}, rep.Endpoints)
	assert.Empty(t, plain.Calls())
}

func TestScan_Spans(t *testing.T) {
	t.Parallel()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, err := New(site(page, scripts), WithTracer(tp.Tracer("test"))).Scan(context.Background(), target, DefaultOptions())
	require.NoError(t, err)

	var names []string
	for _, s := range rec.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"scan", "fetch_page", "fetch_scripts", "fuzz"}, names)
}

func TestScan_SendsUserAgent(t *testing.T) {
	t.Parallel()

	stub := site(page, scripts)
	opts := DefaultOptions()
	opts.UserAgent = "jsenum-test/1.0"
	opts.NoFuzz = true

	_, err := New(stub).Scan(context.Background(), target, opts)
	require.NoError(t, err)

	for _, h := range stub.Headers() {
		assert.Equal(t, "jsenum-test/1.0", h.Get("User-Agent"))
	}
}
