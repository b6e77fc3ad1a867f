// Package metrics exposes scan activity as Prometheus metrics.
//
// All recording methods are safe on a nil *Metrics, so components can take
// an optional collector without guarding every call.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/duration"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
	OutcomeFatal     = "fatal"
)

// Phase labels for request latency.
const (
	PhasePage   = "page"
	PhaseScript = "script"
	PhaseProbe  = "probe"
)

// Metrics holds the collectors for one process. It uses its own registry
// so that tests and embedded use never touch the global default.
type Metrics struct {
	registry *prometheus.Registry

	scans    *prometheus.CounterVec
	scripts  *prometheus.CounterVec
	probes   *prometheus.CounterVec
	findings *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	ns := defaults.MetricsNamespace
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "scans_total",
			Help:      "Scans run, by result.",
		}, []string{"result"}),
		scripts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "scripts_total",
			Help:      "External scripts seen, by outcome.",
		}, []string{"outcome"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "probes_total",
			Help:      "Parameter probes sent, by outcome.",
		}, []string{"outcome"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "findings_total",
			Help:      "Unique findings reported, by kind.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "request_duration_seconds",
			Help:      "Request latency by scan phase.",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"phase"}),
	}
	m.registry.MustRegister(m.scans, m.scripts, m.probes, m.findings, m.latency)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Scan records a finished scan.
func (m *Metrics) Scan(result string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(result).Inc()
}

// Script records the outcome of one discovered script.
func (m *Metrics) Script(outcome string) {
	if m == nil {
		return
	}
	m.scripts.WithLabelValues(outcome).Inc()
}

// Probe records the outcome of one parameter probe.
func (m *Metrics) Probe(outcome string) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(outcome).Inc()
}

// ScriptCounter returns the script counter for outcome.
func (m *Metrics) ScriptCounter(outcome string) prometheus.Counter {
	return m.scripts.WithLabelValues(outcome)
}

// ProbeCounter returns the probe counter for outcome.
func (m *Metrics) ProbeCounter(outcome string) prometheus.Counter {
	return m.probes.WithLabelValues(outcome)
}

// Findings adds n findings of the given kind.
func (m *Metrics) Findings(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.findings.WithLabelValues(kind).Add(float64(n))
}

// Observe records how long a request in phase took.
func (m *Metrics) Observe(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(phase).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Server is a running /metrics endpoint.
type Server struct {
	srv  *http.Server
	addr string
}

// Serve starts an HTTP server on addr exposing /metrics. It returns once
// the listener is bound, so the address is ready to scrape.
func (m *Metrics) Serve(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: duration.ShutdownGrace,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", slog.String("addr", ln.Addr().String()), slog.String("error", err.Error()))
		}
	}()
	return &Server{srv: srv, addr: ln.Addr().String()}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.addr }

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
