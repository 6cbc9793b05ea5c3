package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs an in-memory span exporter for test assertions.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func attrs(stub tracetest.SpanStub) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, a := range stub.Attributes {
		out[a.Key] = a.Value
	}
	return out
}

func TestInitTraceProviderNoopWhenEmpty(t *testing.T) {
	shutdown, err := InitTraceProvider(context.Background(), "", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestRequestSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartRequestSpan(context.Background(), "GET", "agent", "/agent?pageNum=1")
	EndRequestSpan(span, 200, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "api.GET agent", spans[0].Name)

	a := attrs(spans[0])
	assert.Equal(t, "/agent?pageNum=1", a[AttrRequestKey].AsString())
	assert.Equal(t, int64(200), a["http.response.status_code"].AsInt64())
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestRequestSpanRecordsError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartRequestSpan(context.Background(), "PUT", "role", "/role/r1")
	EndRequestSpan(span, 0, errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	_, hasStatus := attrs(spans[0])["http.response.status_code"]
	assert.False(t, hasStatus)
}

func TestReadSpanIsParentOfRequestSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, read := StartReadSpan(context.Background(), "agent", "/agent")
	_, req := StartRequestSpan(ctx, "GET", "agent", "/agent")
	EndRequestSpan(req, 200, nil)
	EndReadSpan(read, true, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].Parent.TraceID())
	assert.True(t, attrs(spans[1])[AttrDedupeShared].AsBool())
}
