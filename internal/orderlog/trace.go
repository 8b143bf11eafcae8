package orderlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	// TraceID is the W3C trace ID (32 lowercase hex chars), empty without an active span.
	TraceID string

	// SpanID is the W3C span ID (16 lowercase hex chars).
	SpanID string
}

// ExtractTraceInfo reads the active OpenTelemetry span from ctx and returns
// its trace_id and span_id as hex strings. Both are empty when the context
// carries no valid span (unit tests, tracing disabled).
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}

	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an Entry with the trace info taken from ctx.
//
//	entry := orderlog.NewEntry(ctx, order.ID, domain.StatusPending, domain.StatusPaid, actor.ID, "wallet debit")
//	_ = tx.AppendStatusLog(ctx, entry)
func NewEntry(
	ctx context.Context,
	orderID string,
	from, to domain.OrderStatus,
	actorID string,
	note string,
) *Entry {
	ti := ExtractTraceInfo(ctx)

	return &Entry{
		OrderID:   orderID,
		From:      from,
		To:        to,
		ActorID:   actorID,
		Note:      note,
		TraceID:   ti.TraceID,
		SpanID:    ti.SpanID,
		CreatedAt: time.Now().UTC(),
	}
}
