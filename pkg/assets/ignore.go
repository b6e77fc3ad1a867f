package assets

import "strings"

// IgnoreList holds substrings identifying third-party scripts that are not
// worth fetching. Matching is case-sensitive and runs on the raw src value.
type IgnoreList []string

// Ignored reports whether src contains any entry of the list.
func (l IgnoreList) Ignored(src string) bool {
	for _, needle := range l {
		if needle != "" && strings.Contains(src, needle) {
			return true
		}
	}
	return false
}

// Split partitions srcs into the ones to fetch and the ones skipped, keeping
// the original order in both.
func (l IgnoreList) Split(srcs []string) (fetch, skipped []string) {
	for _, src := range srcs {
		if l.Ignored(src) {
			skipped = append(skipped, src)
		} else {
			fetch = append(fetch, src)
		}
	}
	return fetch, skipped
}
