package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

const traceparent = "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"

func TestExtractInjectRoundTrip(t *testing.T) {
	ctx := Extract(context.Background(), map[string]string{"Traceparent": traceparent})

	sc := trace.SpanContextFromContext(ctx)
	require.True(t, sc.IsValid())
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", sc.TraceID().String())

	carrier := Inject(ctx)
	assert.Equal(t, traceparent, carrier["traceparent"])
}

func TestExtractEmptyCarrier(t *testing.T) {
	ctx := Extract(context.Background(), nil)
	assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
	assert.Empty(t, Inject(ctx))
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(context.Background(), ProviderConfig{ServiceName: "tritonevents-test", SampleRatio: 1})
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	ctx, span := Tracer().Start(context.Background(), "test")
	defer span.End()
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
}

func TestProviderExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider, err := newProvider("tritonevents-test", 1, exporter)
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	_, span := Tracer().Start(context.Background(), "intake_card")
	span.End()
	require.NoError(t, provider.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "intake_card", spans[0].Name)
}

func TestProviderSampleRatioZeroDropsRootSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider, err := newProvider("tritonevents-test", 0, exporter)
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	_, span := Tracer().Start(context.Background(), "intake_card")
	span.End()
	require.NoError(t, provider.ForceFlush(context.Background()))
	assert.Empty(t, exporter.GetSpans())
}

func TestProviderSendsToOTLPEndpoint(t *testing.T) {
	var hits atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			hits.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	ctx := context.Background()
	provider, err := NewProvider(ctx, ProviderConfig{
		ServiceName: "tritonevents-test",
		SampleRatio: 1,
		Endpoint:    strings.TrimPrefix(collector.URL, "http://"),
		Insecure:    true,
	})
	require.NoError(t, err)
	defer provider.Shutdown(ctx)

	_, span := Tracer().Start(ctx, "status_update")
	span.End()
	require.NoError(t, provider.ForceFlush(ctx))

	assert.Equal(t, int32(1), hits.Load())
}
