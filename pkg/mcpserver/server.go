package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/jsonutil"
	"github.com/waftester/jsenum/pkg/report"
	"github.com/waftester/jsenum/pkg/scanner"
)

// The MCP SDK defines LoggingLevel as a raw string type without exported
// constants.
const (
	logInfo    mcp.LoggingLevel = "info"
	logWarning mcp.LoggingLevel = "warning"
)

// ErrNoScanner is returned by New when the config carries no scanner.
var ErrNoScanner = errors.New("mcpserver: scanner is required")

// Scanner runs one scan. *scanner.Scanner satisfies it.
type Scanner interface {
	Scan(ctx context.Context, rawURL string, opts scanner.Options) (*report.Report, error)
}

// Config holds MCP server configuration.
type Config struct {
	// Scanner executes scan_js calls.
	Scanner Scanner

	// Options are the base scan options. Tool arguments extend them.
	Options scanner.Options

	// MaxThreads caps the threads argument of scan_js.
	MaxThreads int

	Logger *slog.Logger
}

// Server wraps the MCP server with jsenum functionality.
type Server struct {
	mcp    *mcp.Server
	config Config
	logger *slog.Logger
	scans  atomic.Int64
	ready  atomic.Bool
}

// New creates a server with all tools, resources and prompts registered.
func New(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Scanner == nil {
		return nil, ErrNoScanner
	}
	c := *cfg
	if c.MaxThreads < 1 {
		c.MaxThreads = defaults.ConcurrencyMax
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	s := &Server{config: c, logger: c.Logger.With(slog.String("component", "mcp"))}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   "jsenum JavaScript Recon",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	s.ready.Store(true)
	return s, nil
}

const serverInstructions = `jsenum performs passive reconnaissance of a web page's JavaScript.
Call scan_js with a target URL. It downloads the page and its scripts, extracts
endpoints, parameter names, token-like literals and GraphQL usage, then probes
each endpoint for accepted query parameters. Only GET requests are sent.`

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// ScansRun returns the number of scan_js calls handled so far.
func (s *Server) ScansRun() int64 { return s.scans.Load() }

// RunStdio runs the MCP server over stdio transport until ctx is done or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an http.Handler for the streamable HTTP transport.
//
// The handler mounts:
//   - /health  readiness probe (GET only)
//   - /mcp     streamable HTTP transport
//   - /        streamable HTTP transport (default mount)
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)
	return s.recoveryMiddleware(securityHeaders(mux))
}

// handleHealth serves a readiness/liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting","service":"jsenum-mcp"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"jsenum-mcp"}`))
}

// recoveryMiddleware catches panics in HTTP handlers and returns a 500 error
// instead of killing the connection.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic in HTTP handler",
					slog.Any("panic", err),
					slog.String("stack", string(debug.Stack())),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeaders adds standard response hardening headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// notifyProgress sends a progress notification when the client asked for one.
func notifyProgress(ctx context.Context, req *mcp.CallToolRequest, progress, total float64, message string) {
	token := req.Params.GetProgressToken()
	if token == nil || req.Session == nil {
		return
	}
	// Progress is advisory; delivery failures do not affect the call.
	_ = req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
		ProgressToken: token,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
}

// logToSession sends a structured log message to the MCP client.
func logToSession(ctx context.Context, req *mcp.CallToolRequest, level mcp.LoggingLevel, data any) {
	if req.Session == nil {
		return
	}
	_ = req.Session.Log(ctx, &mcp.LoggingMessageParams{
		Level:  level,
		Logger: defaults.ToolName,
		Data:   data,
	})
}

// loggedTool wraps a handler with start/finish logging.
func (s *Server) loggedTool(name string, h mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := h(ctx, req)
		attrs := []any{
			slog.String("tool", name),
			slog.Duration("elapsed", time.Since(start)),
		}
		switch {
		case err != nil:
			s.logger.Error("tool failed", append(attrs, slog.Any("error", err))...)
		case res != nil && res.IsError:
			s.logger.Warn("tool returned error result", attrs...)
		default:
			s.logger.Info("tool completed", attrs...)
		}
		return res, err
	}
}

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError CallToolResult so the model can see the
// error and correct its arguments.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// enrichedError creates a structured error response with recovery guidance.
func enrichedError(msg string, recoverySteps []string) *mcp.CallToolResult {
	type errResponse struct {
		Error         string   `json:"error"`
		RecoverySteps []string `json:"recovery_steps"`
	}
	data, _ := jsonutil.MarshalIndent(errResponse{
		Error:         msg,
		RecoverySteps: recoverySteps,
	}, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

// validateTargetURL checks that target is a valid URL with http(s) scheme.
func validateTargetURL(target string) error {
	if target == "" {
		return fmt.Errorf("target URL is required (e.g. https://example.com)")
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target URL must start with http:// or https:// (got %q)", target)
	}
	if u.Host == "" {
		return fmt.Errorf("target URL is missing a host (got %q)", target)
	}
	return nil
}
