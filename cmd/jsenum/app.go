package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/waftester/jsenum/pkg/browser"
	"github.com/waftester/jsenum/pkg/config"
	"github.com/waftester/jsenum/pkg/duration"
	"github.com/waftester/jsenum/pkg/httpclient"
	"github.com/waftester/jsenum/pkg/metrics"
	"github.com/waftester/jsenum/pkg/scanner"
	"github.com/waftester/jsenum/pkg/tracing"
)

// app holds the long-lived collaborators built from a Config.
type app struct {
	scanner *scanner.Scanner
	logger  *slog.Logger
	metrics *metrics.Metrics
	mserver *metrics.Server
	tracing *tracing.Provider
}

// newLogger returns a text logger honoring --verbose and --silent.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case cfg.Silent:
		level = slog.LevelError
	case cfg.Verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newApp wires the HTTP fetcher, optional browser, metrics and tracing
// into a scanner. Callers must call close.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger, metrics: metrics.New()}

	if cfg.MetricsAddr != "" {
		srv, err := a.metrics.Serve(cfg.MetricsAddr)
		if err != nil {
			return nil, err
		}
		a.mserver = srv
		logger.Info("serving metrics", slog.String("addr", srv.Addr()))
	}

	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.Setup(ctx, tracing.Config{Endpoint: cfg.OTLPEndpoint, Insecure: cfg.OTLPInsecure})
		if err != nil {
			a.close()
			return nil, err
		}
		a.tracing = tp
	}

	fetcher, err := httpclient.NewFetcher(cfg.HTTPConfig())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("http client: %w", err)
	}

	opts := []scanner.Option{
		scanner.WithLogger(logger),
		scanner.WithMetrics(a.metrics),
		scanner.WithTracer(tracing.Tracer()),
	}
	if cfg.Render {
		opts = append(opts, scanner.WithPageFetcher(browser.New(
			browser.WithProxy(cfg.Proxy),
			browser.WithUserAgent(cfg.UserAgent),
			browser.WithLogger(logger),
		)))
	}
	a.scanner = scanner.New(fetcher, opts...)
	return a, nil
}

// close flushes spans and stops the metrics endpoint.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), duration.ShutdownGrace)
	defer cancel()
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.logger.Warn("flushing traces", slog.String("error", err.Error()))
	}
	if a.mserver != nil {
		if err := a.mserver.Shutdown(ctx); err != nil {
			a.logger.Warn("stopping metrics server", slog.String("error", err.Error()))
		}
	}
}
