package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/waftester/jsenum/pkg/config"
	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
	"github.com/waftester/jsenum/pkg/mcpserver"
	"github.com/waftester/jsenum/pkg/ui"
)

// runMCP starts the MCP server.
// Supports two transport modes:
//   - stdio (default): for IDE integrations
//   - --http <addr>:   streamable HTTP for remote deployments
func runMCP(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	httpAddr := fs.String("http", os.Getenv("JSENUM_MCP_HTTP_ADDR"), "HTTP address to listen on (e.g. :8080). Disables stdio.")
	preset := fs.String("preset", "", "Scan preset: "+strings.Join(config.Presets(), ", "))
	cfgFile := fs.String("config", "", "YAML configuration file")
	render := fs.Bool("render", false, "Fetch pages with headless Chrome")
	maxThreads := fs.Int("max-threads", defaults.ConcurrencyMax, "Upper bound for the threads tool argument")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s mcp [flags]\n\n", defaults.ToolName)
		fmt.Fprintf(stderr, "Start an MCP server exposing the scan_js tool.\n\n")
		fmt.Fprintf(stderr, "Environment variables:\n")
		fmt.Fprintf(stderr, "  JSENUM_MCP_HTTP_ADDR  HTTP listen address (same as --http)\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		return defaults.ExitUserError
	}

	cfg, err := mcpConfig(*preset, *cfgFile)
	if err != nil {
		ui.PrintError(err.Error())
		return defaults.ExitUserError
	}
	cfg.Render = cfg.Render || *render
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		ui.PrintError(err.Error())
		return defaults.ExitUserError
	}
	defer a.close()

	srv, err := mcpserver.New(&mcpserver.Config{
		Scanner: a.scanner,
		Options:    cfg.ScanOptions(),
		MaxThreads: *maxThreads,
		Logger:     logger,
	})
	if err != nil {
		ui.PrintError(err.Error())
		return defaults.ExitInternalError
	}

	if *httpAddr == "" {
		if err := srv.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("mcp stdio server stopped", slog.String("error", err.Error()))
			return defaults.ExitInternalError
		}
		return defaults.ExitSuccess
	}
	return serveMCPHTTP(ctx, srv, *httpAddr, logger)
}

// mcpConfig layers defaults, preset and config file. Scan flags are not
// accepted here; tool arguments carry per-call settings.
func mcpConfig(preset, file string) (*config.Config, error) {
	cfg := config.Default()
	if preset != "" {
		p, err := config.LoadPreset(preset)
		if err != nil {
			return nil, err
		}
		cfg.Apply(p)
		cfg.Preset = preset
	}
	if file != "" {
		f, err := config.LoadFile(file)
		if err != nil {
			return nil, err
		}
		cfg.Apply(f)
		cfg.ConfigFile = file
	}
	return cfg, nil
}

func serveMCPHTTP(ctx context.Context, srv *mcpserver.Server, addr string, logger *slog.Logger) int {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.HTTPHandler(),
		ReadHeaderTimeout: duration.ServerReadHeader,
		ReadTimeout:       duration.ServerRead,
		IdleTimeout:       duration.ServerIdle,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), duration.ShutdownGrace)
		defer cancel()
		logger.Info("shutting down MCP HTTP server")
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("mcp shutdown", slog.String("error", err.Error()))
		}
	}()

	logger.Info("serving MCP over HTTP", slog.String("addr", addr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("mcp http server stopped", slog.String("error", err.Error()))
		return defaults.ExitInternalError
	}
	return defaults.ExitSuccess
}
