package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cablenet/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "invoice", "generate_monthly",
		telemetry.WithAttribute(telemetry.SpanAttrPeriod, "2024-03"),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "invoice.generate_monthly", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, "2024-03", attrMap(spans[0].Attributes())[telemetry.SpanAttrPeriod].AsString())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	invoiceID := uuid.New()
	_, span := telemetry.StartSpan(context.Background(), "payment.record")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoiceID,
		"created", 3,
		"paid", true,
		42, "ignored",
		"dangling",
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, 60.5)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, invoiceID.String(), attrs[telemetry.SpanAttrInvoiceID].AsString())
	assert.Equal(t, int64(3), attrs["created"].AsInt64())
	assert.True(t, attrs["paid"].AsBool())
	assert.Equal(t, 60.5, attrs[telemetry.SpanAttrAmount].AsFloat64())
	assert.NotContains(t, attrs, "dangling")
	assert.Len(t, attrs, 4)
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "payment.record")
	telemetry.RecordError(span, errors.New("invoice not found"))
	telemetry.RecordError(span, nil)
	span.End()

	recorded := sr.Ended()[0]
	assert.Equal(t, codes.Error, recorded.Status().Code)
	assert.Equal(t, "invoice not found", recorded.Status().Description)
	require.Len(t, recorded.Events(), 1)
	assert.Equal(t, "exception", recorded.Events()[0].Name)
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "invoice.generate_monthly")
	telemetry.AddEvent(span, "client_skipped", telemetry.SpanAttrClientID, "c-1", "reason", "no plan")
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "client_skipped", events[0].Name)
	assert.Equal(t, "no plan", attrMap(events[0].Attributes)["reason"].AsString())
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.AddEvent(nil, "e")
	})
}
