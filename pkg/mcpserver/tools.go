package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/waftester/jsenum/pkg/duration"
	"github.com/waftester/jsenum/pkg/scanner"
)

// registerTools adds all tools to the MCP server.
func (s *Server) registerTools() {
	s.addScanJSTool()
}

func (s *Server) addScanJSTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "scan_js",
			Title: "Scan Page JavaScript",
			Description: `Passive JavaScript recon of a single web page.

USE THIS TOOL WHEN:
- You need the API endpoints a web application's front-end calls
- You want parameter names and token-like literals embedded in its scripts
- You want to know whether the page talks to a GraphQL API

The page is downloaded, every <script src> (minus analytics and common
libraries) and every inline script is scanned, then each discovered
endpoint is probed with GET ?<param>=test for a dictionary of parameter names.

EXAMPLE INPUTS:
- Default scan: {"url": "https://example.com"}
- Extra keywords and params: {"url": "https://example.com", "tokens": ["bearer"], "params": ["page"]}
- Extraction only: {"url": "https://example.com", "no_fuzz": true}

Returns: the JSON scan report (url, endpoints, parameters, tokens, graphql_used, fuzzed, stats).`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "Target page URL (http or https).",
					},
					"tokens": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Additional token keywords, merged with the defaults.",
					},
					"params": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Additional probe parameter names, merged with the defaults.",
					},
					"threads": map[string]any{
						"type":        "integer",
						"description": fmt.Sprintf("Concurrent script fetches, 1 to %d.", s.config.MaxThreads),
					},
					"no_fuzz": map[string]any{
						"type":        "boolean",
						"description": "Skip parameter probing.",
						"default":     false,
					},
					"deadline_seconds": map[string]any{
						"type":        "integer",
						"description": "Overall scan deadline in seconds, at most one day. Results gathered before it are returned as partial.",
					},
				},
				"required": []string{"url"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:  true,
				OpenWorldHint: boolPtr(true),
			},
		},
		s.loggedTool("scan_js", s.handleScanJS),
	)
}

type scanArgs struct {
	URL             string   `json:"url"`
	Tokens          []string `json:"tokens"`
	Params          []string `json:"params"`
	Threads         int      `json:"threads"`
	NoFuzz          bool     `json:"no_fuzz"`
	DeadlineSeconds int      `json:"deadline_seconds"`
}

// options layers the call arguments over the server's base options.
func (a scanArgs) options(base scanner.Options, maxThreads int) (scanner.Options, error) {
	opts := base.WithTokenKeywords(a.Tokens...).WithParams(a.Params...)
	if a.Threads != 0 {
		if a.Threads < 1 || a.Threads > maxThreads {
			return opts, fmt.Errorf("threads must be between 1 and %d (got %d)", maxThreads, a.Threads)
		}
		opts.Concurrency = a.Threads
	}
	if a.DeadlineSeconds < 0 {
		return opts, fmt.Errorf("deadline_seconds must not be negative (got %d)", a.DeadlineSeconds)
	}
	if limit := int64(duration.MaxDeadline / time.Second); int64(a.DeadlineSeconds) > limit {
		return opts, fmt.Errorf("deadline_seconds must be at most %d (got %d)", limit, a.DeadlineSeconds)
	}
	if a.DeadlineSeconds > 0 {
		opts.Deadline = time.Duration(a.DeadlineSeconds) * time.Second
	}
	opts.NoFuzz = opts.NoFuzz || a.NoFuzz
	return opts, nil
}

func (s *Server) handleScanJS(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args scanArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if err := validateTargetURL(args.URL); err != nil {
		return enrichedError(err.Error(), []string{
			"Pass the full page URL including scheme, e.g. {\"url\": \"https://example.com\"}.",
		}), nil
	}
	opts, err := args.options(s.config.Options, s.config.MaxThreads)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	s.scans.Add(1)
	notifyProgress(ctx, req, 0, 1, "scanning "+args.URL)
	logToSession(ctx, req, logInfo, map[string]any{"event": "scan_started", "url": args.URL})

	rep, err := s.config.Scanner.Scan(ctx, args.URL, opts)
	if err != nil {
		steps := []string{"Check that the URL is reachable from this host."}
		if errors.Is(err, scanner.ErrInvalidTarget) {
			steps = []string{"Pass an absolute http(s) URL with a host."}
		}
		return enrichedError(err.Error(), steps), nil
	}
	if rep.Partial {
		logToSession(ctx, req, logWarning, map[string]any{"event": "scan_partial", "url": args.URL})
	}
	notifyProgress(ctx, req, 1, 1, "scan complete")
	return jsonResult(rep)
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }
