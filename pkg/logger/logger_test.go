package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestLogBookingCreatedWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", true)

	log.LogBookingCreated(context.Background(), "b-1", "TML123", "s-1", "u-1", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Booking Created", rec["msg"])
	assert.Equal(t, "TML123", rec["booking_reference"])
	assert.Equal(t, float64(2), rec["seats"])
}

func TestTraceIDIsAttachedFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", true)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.WithComponent("payments").InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec["trace_id"])
	assert.Equal(t, "payments", rec["component"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", false)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.LogRateLimitExceeded(context.Background(), "1.2.3.4", "/api/v1/reservations")
	assert.Contains(t, buf.String(), "Rate Limit Exceeded")
}
