package jsfetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/httpclient"
	"github.com/waftester/jsenum/pkg/httpclient/fetchtest"
	"github.com/waftester/jsenum/pkg/metrics"
	"github.com/waftester/jsenum/pkg/patterns"
)

const base = "https://site.test"

func tokens(t *testing.T) *patterns.TokenPattern {
	t.Helper()
	p, err := patterns.NewTokenPattern(defaults.TokenKeywords())
	require.NoError(t, err)
	return p
}

func TestRun_MergesAllScripts(t *testing.T) {
	t.Parallel()

	stub := fetchtest.Pages(map[string]string{
		base + "/a.js": `fetch("/api/users?id=1")`,
		base + "/b.js": `const c = new ApolloClient({}); var apiKey = "k-1";`,
	})
	o := New(stub, base, tokens(t))

	res := o.Run(context.Background(), []string{base + "/a.js", base + "/b.js"})

	assert.Equal(t, []string{base + "/api/users?id=1"}, res.Findings.Endpoints.Sorted())
	assert.Equal(t, []string{"id"}, res.Findings.Parameters.Sorted())
	assert.Equal(t, []string{"apiKey=k-1"}, res.Findings.Tokens.Sorted())
	assert.True(t, res.Findings.GraphQL)
	assert.Equal(t, Stats{Requested: 2, Fetched: 2}, res.Stats)
}

func TestRun_AllFailuresStillComplete(t *testing.T) {
	t.Parallel()

	o := New(fetchtest.Failing(errors.New("connection refused")), base, tokens(t))
	res := o.Run(context.Background(), []string{base + "/a.js", base + "/b.js", base + "/c.js"})

	require.NotNil(t, res.Findings)
	assert.True(t, res.Findings.Empty())
	assert.Equal(t, 3, res.Stats.Failed)
	assert.Zero(t, res.Stats.Fetched)
}

func TestRun_NonOKStatusContributesNothing(t *testing.T) {
	t.Parallel()

	stub := fetchtest.New(func(_ context.Context, url string, _ http.Header) (*httpclient.Response, error) {
		return &httpclient.Response{StatusCode: http.StatusNotFound, Body: `fetch("/leak")`}, nil
	})
	res := New(stub, base, tokens(t)).Run(context.Background(), []string{base + "/x.js"})

	assert.True(t, res.Findings.Empty())
	assert.Equal(t, 1, res.Stats.Failed)
}

func TestRun_ConcurrencyIsHardCap(t *testing.T) {
	t.Parallel()

	bodies := make(map[string]string)
	var urls []string
	for i := 0; i < 40; i++ {
		u := fmt.Sprintf("%s/s%d.js", base, i)
		bodies[u] = fmt.Sprintf(`"/route/%d"`, i)
		urls = append(urls, u)
	}
	stub := fetchtest.Pages(bodies)
	stub.Delay = 5 * time.Millisecond

	res := New(stub, base, tokens(t), WithConcurrency(3)).Run(context.Background(), urls)

	assert.LessOrEqual(t, stub.Peak(), 3)
	assert.Len(t, res.Findings.Endpoints, 40)
}

func TestRun_DeduplicatesURLsAndBodies(t *testing.T) {
	t.Parallel()

	same := `"/same/route"`
	stub := fetchtest.Pages(map[string]string{
		base + "/a.js":      same,
		base + "/a.js?v=2":  same,
		base + "/other.js": `"/other"`,
	})
	m := metrics.New()
	o := New(stub, base, tokens(t), WithMetrics(m))

	res := o.Run(context.Background(), []string{
		base + "/a.js", base + "/a.js", base + "/a.js?v=2", base + "/other.js",
	})

	assert.Len(t, stub.Calls(), 3)
	assert.Equal(t, 3, res.Stats.Requested)
	assert.Equal(t, 1, res.Stats.Duplicates)
	assert.ElementsMatch(t, []string{base + "/same/route", base + "/other"}, res.Findings.Endpoints.Sorted())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScriptCounter(metrics.OutcomeDuplicate)))
}

func TestRun_SendsHeaders(t *testing.T) {
	t.Parallel()

	stub := fetchtest.Pages(map[string]string{base + "/a.js": ""})
	h := http.Header{"User-Agent": {"jsenum-test"}}
	New(stub, base, tokens(t), WithHeaders(h)).Run(context.Background(), []string{base + "/a.js"})

	require.Len(t, stub.Headers(), 1)
	assert.Equal(t, "jsenum-test", stub.Headers()[0].Get("User-Agent"))
}

func TestRun_DefaultUserAgent(t *testing.T) {
	t.Parallel()

	stub := fetchtest.Pages(map[string]string{base + "/a.js": ""})
	New(stub, base, tokens(t)).Run(context.Background(), []string{base + "/a.js"})

	require.Len(t, stub.Headers(), 1)
	assert.Equal(t, defaults.UserAgent, stub.Headers()[0].Get("User-Agent"))
}

func TestRun_CanceledContextSkipsWork(t *testing.T) {
	t.Parallel()

	stub := fetchtest.Pages(map[string]string{base + "/a.js": `"/x"`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(stub, base, tokens(t)).Run(ctx, []string{base + "/a.js", base + "/b.js"})

	assert.True(t, res.Findings.Empty())
	assert.Equal(t, 2, res.Stats.Skipped)
	assert.Empty(t, stub.Calls())
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	res := New(fetchtest.Pages(nil), base, tokens(t)).Run(context.Background(), nil)
	assert.True(t, res.Findings.Empty())
	assert.Equal(t, Stats{}, res.Stats)
}
