package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/waftester/jsenum/pkg/regexcache"
)

// ErrNoKeywords is returned when a token pattern is requested for an empty
// keyword list.
var ErrNoKeywords = errors.New("patterns: no token keywords")

// TokenPattern matches `<keyword>` followed by quotes, whitespace, `:` or `=`
// and then a value made of letters, digits, `_`, `-` and `.`. Matching is
// case-insensitive.
type TokenPattern struct {
	re       *regexp.Regexp
	keywords []string
}

// NewTokenPattern builds the token matcher for one scan's keyword list.
// Keywords are matched literally; blanks are skipped. Earlier keywords win
// when several could match at the same position.
func NewTokenPattern(keywords []string) (*TokenPattern, error) {
	quotedKW := make([]string, 0, len(keywords))
	kept := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		kept = append(kept, kw)
		quotedKW = append(quotedKW, regexp.QuoteMeta(kw))
	}
	if len(quotedKW) == 0 {
		return nil, ErrNoKeywords
	}

	src := `(?i)(` + strings.Join(quotedKW, "|") + `)["'\s:=]+([a-zA-Z0-9_\-\.]+)`
	re, err := regexcache.Get(src)
	if err != nil {
		return nil, fmt.Errorf("patterns: compile token pattern: %w", err)
	}
	return &TokenPattern{re: re, keywords: kept}, nil
}

// MustTokenPattern is like NewTokenPattern but panics on error.
func MustTokenPattern(keywords []string) *TokenPattern {
	p, err := NewTokenPattern(keywords)
	if err != nil {
		panic(err)
	}
	return p
}

// Find returns every match formatted as `key=value`, where key is the keyword
// exactly as it appears in text.
func (p *TokenPattern) Find(text string) []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, groups := range p.re.FindAllStringSubmatch(text, -1) {
		out = append(out, groups[1]+"="+groups[2])
	}
	return out
}

// Keywords returns the keywords the pattern was built from.
func (p *TokenPattern) Keywords() []string {
	return append([]string(nil), p.keywords...)
}

// String returns the pattern source.
func (p *TokenPattern) String() string {
	return p.re.String()
}
