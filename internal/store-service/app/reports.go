package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

const dashboardRecentOrders = 10

// Dashboard summarises the catalog and order book for administrators.
func (s *Service) Dashboard(ctx context.Context, actor domain.Actor) (*domain.Dashboard, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	d := &domain.Dashboard{}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		var err error
		if d.Products, err = tx.CountProducts(ctx, domain.ProductFilter{}); err != nil {
			return err
		}
		if d.OrdersByStatus, err = tx.CountOrdersByStatus(ctx); err != nil {
			return err
		}
		for _, n := range d.OrdersByStatus {
			d.Orders += n
		}
		d.RecentOrders, err = tx.ListOrders(ctx, domain.OrderFilter{Limit: dashboardRecentOrders})
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SalesReport aggregates revenue in [from, to) per UTC day, per product and
// per category.
// Orders count as sales once paid and until refunded or cancelled.
func (s *Service) SalesReport(ctx context.Context, actor domain.Actor, from, to time.Time) (*domain.SalesReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("report range %s..%s: %w",
			from.Format(time.DateOnly), to.Format(time.DateOnly), domain.ErrInvalidArgument)
	}

	r := &domain.SalesReport{From: from, To: to, TotalSales: money.Zero}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		var err error
		if r.Daily, err = tx.SalesByDay(ctx, from, to, domain.SalesStatuses); err != nil {
			return err
		}
		if r.ByProduct, err = tx.SalesByProduct(ctx, from, to, domain.SalesStatuses); err != nil {
			return err
		}
		r.ByCategory, err = tx.SalesByCategory(ctx, from, to, domain.SalesStatuses)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, d := range r.Daily {
		r.TotalSales = r.TotalSales.Add(d.Sales)
	}
	return r, nil
}
