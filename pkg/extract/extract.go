// Package extract applies the pattern library and URL resolver to a block of
// page or script text and collects the results as sets.
package extract

import (
	"github.com/waftester/jsenum/pkg/patterns"
	"github.com/waftester/jsenum/pkg/resolve"
)

// Extract mines text for endpoints, query parameter names, tokens and GraphQL
// markers. Endpoints are resolved against base before they are stored, so
// references to the same resource in different textual forms collapse into
// one entry.
//
// Extract has no side effects and holds no state between calls. A nil tokens
// pattern disables token matching.
func Extract(text, base string, tokens *patterns.TokenPattern) *Findings {
	return ExtractWith(patterns.Default(), text, base, tokens)
}

// ExtractWith is Extract with an explicit pattern library.
func ExtractWith(lib *patterns.Library, text, base string, tokens *patterns.TokenPattern) *Findings {
	f := NewFindings()
	if text == "" {
		return f
	}

	for _, m := range lib.Endpoints(text) {
		f.Endpoints.Add(resolve.Endpoint(m.Raw, base))
	}
	f.Parameters.Add(lib.Parameters(text)...)
	f.Tokens.Add(tokens.Find(text)...)
	f.GraphQL = lib.GraphQL(text)
	return f
}
