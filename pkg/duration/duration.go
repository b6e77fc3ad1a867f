// Package duration provides canonical time constants for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.FetchTimeout)
//
// DO NOT use hardcoded time.Duration values like `10 * time.Second` anywhere.
// Instead, reference the appropriate constant from this package.
package duration

import "time"

// ============================================================================
// REQUEST TIMEOUTS
// ============================================================================
//
// Probes are far more numerous than page and script fetches and each one is
// worth less, so they get the shorter budget.
// ============================================================================

const (
	// FetchTimeout bounds the page fetch and every script fetch (10s)
	FetchTimeout = 10 * time.Second

	// ProbeTimeout bounds every parameter probe (5s)
	ProbeTimeout = 5 * time.Second

	// RenderTimeout bounds a headless page render (30s)
	RenderTimeout = 30 * time.Second

	// MaxDeadline is the longest overall scan deadline a caller may request (24h)
	MaxDeadline = 24 * time.Hour
)

// ============================================================================
// TRANSPORT
// ============================================================================

const (
	// DialTimeout is the TCP connect timeout (10s)
	DialTimeout = 10 * time.Second

	// TLSHandshake is the TLS handshake timeout (10s)
	TLSHandshake = 10 * time.Second

	// KeepAlive is the TCP keep-alive period (30s)
	KeepAlive = 30 * time.Second

	// IdleConn is how long idle pooled connections are kept (90s)
	IdleConn = 90 * time.Second

	// ExpectContinue is how long to wait for a 100-continue reply (1s)
	ExpectContinue = 1 * time.Second

	// DNSCacheTTL is how long a resolved address is reused (5m)
	DNSCacheTTL = 5 * time.Minute
)

// ============================================================================
// MCP HTTP SERVER
// ============================================================================

const (
	// ServerReadHeader bounds reading request headers (10s)
	ServerReadHeader = 10 * time.Second

	// ServerRead bounds reading a whole request (30s)
	ServerRead = 30 * time.Second

	// ServerIdle is the keep-alive idle timeout (30s)
	ServerIdle = 30 * time.Second
)

// ============================================================================
// LIFECYCLE
// ============================================================================

const (
	// ShutdownGrace bounds metrics server and tracer shutdown (5s)
	ShutdownGrace = 5 * time.Second

	// TracerBatch is the span batch export interval (5s)
	TracerBatch = 5 * time.Second
)
