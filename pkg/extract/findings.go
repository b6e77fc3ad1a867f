package extract

import (
	"sort"
	"sync"
)

// Set is an unordered collection of unique strings.
type Set map[string]struct{}

// NewSet returns a set holding vals.
func NewSet(vals ...string) Set {
	s := make(Set, len(vals))
	s.Add(vals...)
	return s
}

// Add inserts vals.
func (s Set) Add(vals ...string) {
	for _, v := range vals {
		s[v] = struct{}{}
	}
}

// Has reports whether v is present.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Union adds every member of o to s.
func (s Set) Union(o Set) {
	for v := range o {
		s[v] = struct{}{}
	}
}

// Sorted returns the members in lexicographic order. It never returns nil so
// that empty sets encode as [] rather than null.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Findings is what one or more texts yielded.
type Findings struct {
	Endpoints  Set
	Parameters Set
	Tokens     Set
	GraphQL    bool
}

// NewFindings returns empty findings.
func NewFindings() *Findings {
	return &Findings{
		Endpoints:  make(Set),
		Parameters: make(Set),
		Tokens:     make(Set),
	}
}

// Merge folds o into f. Merging is a set union, so the order in which
// findings are merged never changes the result.
func (f *Findings) Merge(o *Findings) {
	if o == nil {
		return
	}
	f.Endpoints.Union(o.Endpoints)
	f.Parameters.Union(o.Parameters)
	f.Tokens.Union(o.Tokens)
	f.GraphQL = f.GraphQL || o.GraphQL
}

// Empty reports whether nothing was found.
func (f *Findings) Empty() bool {
	return len(f.Endpoints) == 0 && len(f.Parameters) == 0 && len(f.Tokens) == 0 && !f.GraphQL
}

// Clone returns a deep copy.
func (f *Findings) Clone() *Findings {
	c := NewFindings()
	c.Merge(f)
	return c
}

// Accumulator merges findings from concurrent tasks.
type Accumulator struct {
	mu sync.Mutex
	f  *Findings
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{f: NewFindings()}
}

// Add merges f into the running total.
func (a *Accumulator) Add(f *Findings) {
	a.mu.Lock()
	a.f.Merge(f)
	a.mu.Unlock()
}

// Snapshot returns a copy of the running total.
func (a *Accumulator) Snapshot() *Findings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Clone()
}
