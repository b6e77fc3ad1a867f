// Package templates embeds the bundled report templates.
//
// Usage:
//
//	data, _ := templates.FS.ReadFile("output/summary.tmpl")
package templates

import "embed"

// FS contains the built-in output templates. Each output/<name>.tmpl is
// selectable with --template <name>.
//
//go:embed output/*.tmpl
var FS embed.FS
