package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/nutrition-store/internal/pkg/metrics"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

const (
	kindLowStock       = "low_stock"
	kindOrderConfirmed = "order_confirmed"

	defaultNotifyTimeout = 10 * time.Second
)

// Dispatcher sends notifications fire-and-forget. Each one runs on its own
// goroutine detached from the request context, so the request can finish
// first. Failures and panics are logged and counted, never returned.
type Dispatcher struct {
	notifier ports.Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(n ports.Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &Dispatcher{notifier: n, timeout: timeout}
}

func (d *Dispatcher) LowStock(ctx context.Context, items []domain.LowStockItem) {
	d.dispatch(ctx, kindLowStock, func(ctx context.Context) error {
		return d.notifier.NotifyLowStock(ctx, items)
	})
}

func (d *Dispatcher) OrderConfirmed(ctx context.Context, c domain.OrderConfirmation) {
	d.dispatch(ctx, kindOrderConfirmed, func(ctx context.Context) error {
		return d.notifier.NotifyOrderConfirmed(ctx, c)
	})
}

// Wait blocks until every dispatched notification has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, send func(context.Context) error) {
	if d == nil || d.notifier == nil {
		return
	}

	// Keep trace and request values, drop the request's cancellation.
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("notifier panic: %v", r)
				}
			}()
			return send(ctx)
		}()

		if err != nil {
			metrics.NotificationsFailed.WithLabelValues(kind).Inc()
			slog.ErrorContext(ctx, "notification failed", "kind", kind, "error", err)
			return
		}
		slog.DebugContext(ctx, "notification sent", "kind", kind)
	}()
}
