package sqlstore

import (
	"context"
	"fmt"

	"github.com/jcmexdev/nutrition-store/internal/orderlog"
)

// AppendStatusLog inserts a new row. Inside WithTx it commits or rolls back
// together with the status change it records.
func (q *queries) AppendStatusLog(ctx context.Context, e *orderlog.Entry) error {
	const stmt = `
		INSERT INTO order_status_log
			(order_id, from_status, to_status, actor_id, note, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.q.ExecContext(ctx, stmt,
		e.OrderID,
		string(e.From),
		string(e.To),
		e.ActorID,
		e.Note,
		e.TraceID,
		e.SpanID,
		formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlstore: append status log for %q: %w", e.OrderID, err)
	}
	return nil
}

func (q *queries) ListStatusLog(ctx context.Context, orderID string) ([]orderlog.Entry, error) {
	const query = `
		SELECT order_id, from_status, to_status, actor_id, note, trace_id, span_id, created_at
		FROM   order_status_log
		WHERE  order_id = ?
		ORDER  BY created_at, id`

	rows, err := q.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list status log for %q: %w", orderID, err)
	}
	defer rows.Close()

	var out []orderlog.Entry
	for rows.Next() {
		var (
			e         orderlog.Entry
			createdAt string
		)
		err := rows.Scan(&e.OrderID, &e.From, &e.To, &e.ActorID, &e.Note, &e.TraceID, &e.SpanID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan status log: %w", err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
