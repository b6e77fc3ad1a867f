package config

import "errors"

// Sentinel errors for configuration failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidConfig indicates the configuration is syntactically
	// or semantically invalid (bad YAML, out-of-range values, etc.).
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingRequired indicates a required configuration field
	// was not provided.
	ErrMissingRequired = errors.New("config: missing required field")

	// ErrUnknownPreset indicates --preset named no bundled preset.
	ErrUnknownPreset = errors.New("config: unknown preset")

	// ErrVersion is returned by Parse when --version was given.
	ErrVersion = errors.New("config: version requested")
)
