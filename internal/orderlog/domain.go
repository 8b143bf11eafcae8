// Package orderlog defines the audit trail of order status transitions.
//
// Every status write (creation, payment, cancellation, refund...) appends one
// immutable Entry in the same transaction as the write itself, so the log and
// the orders table never disagree. Each entry carries the W3C trace and span
// IDs of the request that caused it, which lets an operator jump from a row
// to the distributed trace.
package orderlog

import (
	"time"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

// Entry is a single row in the order_status_log table.
type Entry struct {
	// OrderID is the order whose status changed.
	OrderID string

	// From is the previous status. Empty for the creation entry.
	From domain.OrderStatus

	// To is the new status.
	To domain.OrderStatus

	// ActorID is the user or administrator who triggered the change.
	ActorID string

	// Note carries free-form context such as "wallet debit 308.80".
	Note string

	TraceID string
	SpanID  string

	// CreatedAt is the wall-clock time of the change.
	CreatedAt time.Time
}
