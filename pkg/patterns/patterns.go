// Package patterns holds the compiled text patterns used to mine JavaScript
// and HTML for endpoints, query parameters, credential-like tokens and
// GraphQL usage.
//
// Matching is purely lexical. Nothing here parses JavaScript, so minified or
// obfuscated input simply yields fewer matches.
package patterns

import (
	"regexp"
	"strings"
	"sync"

	"github.com/waftester/jsenum/pkg/regexcache"
)

// Kind identifies which matcher produced an endpoint.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindFetch   Kind = "fetch"
	KindAxios   Kind = "axios"
	KindXHR     Kind = "xhr"
)

// Match is one raw endpoint reference found in text, before URL resolution.
type Match struct {
	Kind Kind
	Raw  string
}

// Library is the immutable set of endpoint, parameter and GraphQL matchers.
// It is safe for concurrent use.
type Library struct {
	endpoints []endpointMatcher
	param     *regexp.Regexp
	graphql   *regexp.Regexp
}

type endpointMatcher struct {
	kind Kind
	re   *regexp.Regexp
}

const (
	// endpointBody accepts a rooted or dotted path, an http(s) URL or a bare
	// file name with a server-side extension. Quotes may not appear inside.
	endpointBody = `/[^"']+|https?://[^"']+|\.{1,2}/[^"']+|\w+\.(?:php|json|jsp|cgi|action|aspx)`

	httpVerbs = `get|post|put|delete`
	xhrVerbs  = `GET|POST|PUT|DELETE`

	paramPattern   = `[?&]([a-zA-Z0-9_\-]+)=`
	graphqlPattern = `(?i)graphql|ApolloClient`
)

// quoted builds an alternation matching body between a matching pair of
// quotes, one alternative per quote style. RE2 has no backreferences, so
// every style is spelled out. With capture set, each alternative wraps body
// in its own group.
func quoted(quotes string, capture bool, body func(q string) string) string {
	open := "(?:"
	if capture {
		open = "("
	}
	alts := make([]string, 0, len(quotes))
	for _, r := range quotes {
		q := string(r)
		alts = append(alts, q+open+body(q)+")"+q)
	}
	return "(?:" + strings.Join(alts, "|") + ")"
}

// literal matches a single-line string literal bounded by quote q.
func literal(q string) string {
	return "[^" + q + `\n]+`
}

// anyQuote lists the quote styles accepted around call arguments.
const anyQuote = "\"'`"

// New compiles the pattern library.
func New() *Library {
	generic := quoted(`"'`, true, func(string) string { return endpointBody })
	fetch := `fetch\(` + quoted(anyQuote, true, literal)
	axios := `axios\.(?:` + httpVerbs + `)\(` + quoted(anyQuote, true, literal)
	method := quoted(anyQuote, false, func(string) string { return xhrVerbs })
	xhr := `open\(` + method + `,\s*` + quoted(anyQuote, true, literal)

	return &Library{
		endpoints: []endpointMatcher{
			{KindGeneric, regexcache.MustGet(generic)},
			{KindFetch, regexcache.MustGet(fetch)},
			{KindAxios, regexcache.MustGet(axios)},
			{KindXHR, regexcache.MustGet(xhr)},
		},
		param:   regexcache.MustGet(paramPattern),
		graphql: regexcache.MustGet(graphqlPattern),
	}
}

var (
	defaultLib  *Library
	defaultOnce sync.Once
)

// Default returns the shared pattern library.
func Default() *Library {
	defaultOnce.Do(func() { defaultLib = New() })
	return defaultLib
}

// Endpoints returns every raw endpoint reference in text, grouped by matcher
// and in order of appearance within each group. Duplicates are kept.
func (l *Library) Endpoints(text string) []Match {
	var out []Match
	for _, m := range l.endpoints {
		for _, groups := range m.re.FindAllStringSubmatch(text, -1) {
			if raw := firstGroup(groups); raw != "" {
				out = append(out, Match{Kind: m.kind, Raw: raw})
			}
		}
	}
	return out
}

// Parameters returns the names of every `?name=` or `&name=` occurrence.
func (l *Library) Parameters(text string) []string {
	var out []string
	for _, groups := range l.param.FindAllStringSubmatch(text, -1) {
		out = append(out, groups[1])
	}
	return out
}

// GraphQL reports whether text mentions graphql or ApolloClient.
func (l *Library) GraphQL(text string) bool {
	return l.graphql.MatchString(text)
}

// firstGroup returns the first non-empty capture group. Exactly one quote
// alternative can match, so at most one group is set.
func firstGroup(groups []string) string {
	for _, g := range groups[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
