package orderlog

import "context"

// Repository persists log entries. The store's transaction type implements
// it so entries are written atomically with the status change.
type Repository interface {
	// AppendStatusLog adds a row; the table is append-only.
	AppendStatusLog(ctx context.Context, entry *Entry) error

	// ListStatusLog returns an order's entries oldest first.
	ListStatusLog(ctx context.Context, orderID string) ([]Entry, error)
}
