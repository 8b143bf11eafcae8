package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

const (
	DefaultLowStockThreshold = 10
	DefaultLowStockInterval  = 24 * time.Hour
)

// LowStockMonitor is the process-wide "last low-stock check" state. It is
// created once in main with last = process start, and only Due mutates it,
// so the first check can fire one interval after startup.
// The state is in memory only: a restart resets it.
type LowStockMonitor struct {
	mu        sync.Mutex
	last      time.Time
	interval  time.Duration
	threshold int
	now       func() time.Time
}

func NewLowStockMonitor(start time.Time, interval time.Duration, threshold int) *LowStockMonitor {
	if interval <= 0 {
		interval = DefaultLowStockInterval
	}
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &LowStockMonitor{
		last:      start,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
	}
}

// Due reports whether a check should run now and, if so, records now as the
// last check.
func (m *LowStockMonitor) Due() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.last) < m.interval {
		return false
	}
	m.last = now
	return true
}

func (m *LowStockMonitor) Threshold() int { return m.threshold }

func (m *LowStockMonitor) LastCheck() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// checkLowStock runs after a committed stock change. It never fails the
// caller.
func (s *Service) checkLowStock(ctx context.Context) {
	if s.lowStock == nil || !s.lowStock.Due() {
		return
	}

	items, err := s.repo.ListLowStock(ctx, s.lowStock.Threshold())
	if err != nil {
		slog.ErrorContext(ctx, "low stock check failed", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	slog.InfoContext(ctx, "low stock detected", "products", len(items))
	s.dispatcher.LowStock(ctx, items)
}

// reserve decrements stock inside tx, or returns a *domain.StockError naming
// the product when fewer than qty units remain.
func reserve(ctx context.Context, tx ports.Queries, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("reserve %d of %q: %w", qty, productID, domain.ErrInvalidQuantity)
	}

	ok, err := tx.ReserveStock(ctx, productID, qty)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	p, err := tx.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	return &domain.StockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   qty,
		Available:   p.StockQuantity,
	}
}

func release(ctx context.Context, tx ports.Queries, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("release %d of %q: %w", qty, productID, domain.ErrInvalidQuantity)
	}
	return tx.ReleaseStock(ctx, productID, qty)
}

// Reserve takes qty units of a product out of stock.
func (s *Service) Reserve(ctx context.Context, productID string, qty int) (err error) {
	ctx, end := s.startSpan(ctx, "Reserve", attribute.String("product_id", productID), attribute.Int("qty", qty))
	defer func() { end(err) }()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		return reserve(ctx, tx, productID, qty)
	})
	if err != nil {
		return err
	}
	s.checkLowStock(ctx)
	return nil
}

// Release puts qty units back. There is no upper bound.
func (s *Service) Release(ctx context.Context, productID string, qty int) (err error) {
	ctx, end := s.startSpan(ctx, "Release", attribute.String("product_id", productID), attribute.Int("qty", qty))
	defer func() { end(err) }()

	return s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		return release(ctx, tx, productID, qty)
	})
}

// Restock records goods received. Admin only.
func (s *Service) Restock(ctx context.Context, actor domain.Actor, productID string, qty int) (p *domain.Product, err error) {
	ctx, end := s.startSpan(ctx, "Restock", attribute.String("product_id", productID), attribute.Int("qty", qty))
	defer func() { end(err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		if err := release(ctx, tx, productID, qty); err != nil {
			return err
		}
		p, err = tx.GetProduct(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "product restocked", "product_id", productID, "qty", qty, "stock", p.StockQuantity)
	s.checkLowStock(ctx)
	return p, nil
}
