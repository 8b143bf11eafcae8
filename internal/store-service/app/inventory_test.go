package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

func TestLowStockMonitorFiresOncePerInterval(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	m := NewLowStockMonitor(start, 24*time.Hour, 10)
	m.now = func() time.Time { return now }

	assert.False(t, m.Due(), "not due right after start")

	now = start.Add(23 * time.Hour)
	assert.False(t, m.Due())

	now = start.Add(24 * time.Hour)
	assert.True(t, m.Due())
	assert.False(t, m.Due(), "a second check in the same interval is suppressed")
	assert.Equal(t, now, m.LastCheck())

	now = now.Add(25 * time.Hour)
	assert.True(t, m.Due())
}

func TestLowStockMonitorDefaults(t *testing.T) {
	m := NewLowStockMonitor(time.Now(), 0, 0)
	assert.Equal(t, DefaultLowStockThreshold, m.Threshold())
	assert.Equal(t, DefaultLowStockInterval, m.interval)
}

func TestReserveAndRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Whey Protein", "89.90", 3)

	err := f.svc.Reserve(ctx, p.ID, 4)
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 4, se.Requested)
	assert.Equal(t, 3, se.Available)
	assert.Equal(t, 3, f.stock(t, p.ID))

	assert.ErrorIs(t, f.svc.Reserve(ctx, p.ID, 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.svc.Reserve(ctx, "missing", 1), domain.ErrNotFound)

	require.NoError(t, f.svc.Reserve(ctx, p.ID, 3))
	assert.Equal(t, 0, f.stock(t, p.ID))

	require.NoError(t, f.svc.Release(ctx, p.ID, 7))
	assert.Equal(t, 7, f.stock(t, p.ID))
}

func TestCheckoutTriggersLowStockNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Creatine", "129.00", 12)

	_, err := f.svc.UpsertCartLine(ctx, "alice", p.ID, 3)
	require.NoError(t, err)
	f.checkout(t, "alice")
	f.dispatcher.Wait()

	batches := f.notifier.lowStockBatches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, p.ID, batches[0][0].ProductID)
	assert.Equal(t, 9, batches[0][0].Stock)

	// Within the same interval no second notification is sent.
	_, err = f.svc.UpsertCartLine(ctx, "bob", p.ID, 1)
	require.NoError(t, err)
	f.checkout(t, "bob")
	f.dispatcher.Wait()
	assert.Len(t, f.notifier.lowStockBatches(), 1)
}

func TestRestock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Creatine", "129.00", 2)

	_, err := f.svc.Restock(ctx, alice, p.ID, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Restock(ctx, admin, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	got, err := f.svc.Restock(ctx, admin, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, got.StockQuantity)
}

func TestCatalogAdministration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateProduct(ctx, alice, ProductInput{Name: "X", Price: money.MustParse("1.00")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CreateProduct(ctx, admin, ProductInput{Name: " ", Price: money.MustParse("1.00")})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.CreateProduct(ctx, admin, ProductInput{Name: "X", Price: money.MustParse("-1.00")})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	p := f.product(t, "BCAA", "39.90", 20)
	price := money.MustParse("35.00")
	inactive := false
	updated, err := f.svc.UpdateProduct(ctx, admin, p.ID, ProductPatch{Price: &price, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "35.00", money.Format(updated.Price))
	assert.Equal(t, 20, updated.StockQuantity)

	_, err = f.svc.GetProduct(ctx, alice, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.GetProduct(ctx, admin, p.ID)
	assert.NoError(t, err)

	public, err := f.svc.ListProducts(ctx, alice, ProductQuery{IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, public.Products)
	assert.Zero(t, public.Total)

	all, err := f.svc.ListProducts(ctx, admin, ProductQuery{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all.Products, 1)
}

func TestDashboardAndSalesReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.wheyAndCreatine(t, "alice")
	o := f.checkout(t, "alice")
	_, err := f.svc.Pay(ctx, alice, o.ID)
	require.NoError(t, err)

	_, err = f.svc.Dashboard(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	d, err := f.svc.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Products)
	assert.Equal(t, 1, d.Orders)
	assert.Equal(t, 1, d.OrdersByStatus[domain.StatusPaid])
	require.Len(t, d.RecentOrders, 1)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	r, err := f.svc.SalesReport(ctx, admin, from, to)
	require.NoError(t, err)
	assert.Equal(t, "308.80", money.Format(r.TotalSales))
	require.Len(t, r.ByProduct, 2)
	assert.Equal(t, "Whey Protein", r.ByProduct[0].Name)
	require.Len(t, r.ByCategory, 1, "uncategorized products share one bucket")
	assert.Empty(t, r.ByCategory[0].CategoryID)
	assert.Equal(t, 3, r.ByCategory[0].Quantity)
	assert.Equal(t, "308.80", money.Format(r.ByCategory[0].Sales))

	_, err = f.svc.SalesReport(ctx, admin, to, from)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
