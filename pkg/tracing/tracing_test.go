package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_RequiresEndpoint(t *testing.T) {
	_, err := Setup(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestInstall_RecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	p := Install(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	defer func() { require.NoError(t, p.Shutdown(context.Background())) }()

	_, span := Tracer().Start(context.Background(), "unit")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "unit", ended[0].Name())
	assert.Equal(t, InstrumentationName, ended[0].InstrumentationScope().Name)
}

func TestShutdown_NilProvider(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}
