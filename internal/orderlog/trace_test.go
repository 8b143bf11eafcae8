package orderlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

func TestNewEntryWithoutSpan(t *testing.T) {
	e := NewEntry(context.Background(), "o1", domain.StatusPending, domain.StatusPaid, "u1", "")

	assert.Equal(t, "o1", e.OrderID)
	assert.Equal(t, domain.StatusPending, e.From)
	assert.Equal(t, domain.StatusPaid, e.To)
	assert.Empty(t, e.TraceID)
	assert.Empty(t, e.SpanID)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestNewEntryWithSpan(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	e := NewEntry(ctx, "o1", "", domain.StatusPending, "u1", "checkout")

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", e.TraceID)
	assert.Equal(t, "00f067aa0ba902b7", e.SpanID)
	assert.Equal(t, "checkout", e.Note)
}
