// Package mcpserver exposes jsenum as a Model Context Protocol (MCP) server
// so AI assistants can run passive JavaScript recon against a URL.
//
// # Capabilities
//
//   - Tools:     scan_js runs a full scan and returns the JSON report
//   - Resources: jsenum://version and jsenum://defaults
//   - Prompts:   js_recon, a guided recon workflow around scan_js
//
// # Transports
//
//   - stdio:  Communicates over stdin/stdout (default). Used by IDE integrations.
//   - HTTP:   Streamable HTTP, mounted at /mcp with a /health probe.
//
// # Usage
//
//	srv := mcpserver.New(&mcpserver.Config{Scanner: sc, Options: opts})
//	err := srv.RunStdio(ctx)
package mcpserver
