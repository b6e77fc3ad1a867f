// Package presets embeds the bundled scan presets.
//
// A preset is a partial configuration file selected with --preset <name>.
// Values from a --config file and from flags override it.
//
// Usage:
//
//	data, _ := presets.FS.ReadFile("stealth.yaml")
package presets

import "embed"

// FS contains one <name>.yaml file per preset.
//
//go:embed *.yaml
var FS embed.FS
