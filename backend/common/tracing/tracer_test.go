package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracerProvider_WithoutEndpoint(t *testing.T) {
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	shutdown, err := InitTracerProvider("cpq-test", Config{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, shutdown(context.Background())) }()

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())

	header := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
	assert.NotEmpty(t, header.Get("traceparent"))
}

func TestNewProvider_ExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := newProvider("cpq-test", exporter, 1, false)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "quote")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "quote", spans[0].Name)
}

func TestNewProvider_RatioSampler(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := newProvider("cpq-test", exporter, 0.000001, false)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	sampled := 0
	for i := 0; i < 50; i++ {
		ctx, span := tp.Tracer("test").Start(context.Background(), "quote")
		if trace.SpanContextFromContext(ctx).IsSampled() {
			sampled++
		}
		span.End()
	}
	assert.Less(t, sampled, 50)
}
