package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/nutrition-store/internal/orderlog"
	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProduct(t *testing.T, s *Store, id, price string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:            id,
		Name:          "product " + id,
		Price:         money.MustParse(price),
		StockQuantity: stock,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, s.InsertProduct(context.Background(), p))
	return p
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s1, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "x", 1)
	assert.Error(t, err)
}

func TestProductRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedProduct(t, s, "p1", "45.90", 100)

	got, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, money.MustParse("45.90").Equal(got.Price))
	assert.Equal(t, 100, got.StockQuantity)
	assert.True(t, got.IsActive)

	_, err = s.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReserveStockIsConditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedProduct(t, s, "p1", "10.00", 3)

	ok, err := s.ReserveStock(ctx, "p1", 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ReserveStock(ctx, "p1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)

	require.NoError(t, s.ReleaseStock(ctx, "p1", 2))
	p, _ = s.GetProduct(ctx, "p1")
	assert.Equal(t, 2, p.StockQuantity)
}

func TestReserveStockConcurrentNeverNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedProduct(t, s, "p1", "10.00", 10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ReserveStock(ctx, "p1", 1)
			if err == nil && ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	p, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, granted)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestWithTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedProduct(t, s, "p1", "10.00", 5)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		ok, err := tx.ReserveStock(ctx, "p1", 5)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.StockQuantity)
}

func TestOrderRoundTripAndStatusCAS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	o := &domain.Order{
		ID:     "o1",
		UserID: "u1",
		Lines: []domain.OrderLine{
			{ProductID: "a", ProductName: "Whey", Quantity: 2, UnitPrice: money.MustParse("89.90")},
			{ProductID: "b", ProductName: "Creatine", Quantity: 1, UnitPrice: money.MustParse("129.00")},
		},
		Status:          domain.StatusPending,
		ShippingAddress: "default address",
		PaymentMethod:   "wallet",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.TotalAmount = o.LinesTotal()

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		return tx.InsertOrder(ctx, o)
	}))

	got, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, money.MustParse("308.80").Equal(got.TotalAmount))
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Whey", got.Lines[0].ProductName)
	assert.Equal(t, "Creatine", got.Lines[1].ProductName)

	ok, err := s.UpdateOrderStatusIf(ctx, "o1", domain.StatusPending, domain.StatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateOrderStatusIf(ctx, "o1", domain.StatusPending, domain.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok, "status moved on, stale CAS must lose")

	list, err := s.ListOrders(ctx, domain.OrderFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusPaid, list[0].Status)
	assert.Len(t, list[0].Lines, 2)

	counts, err := s.CountOrdersByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.StatusPaid])
}

func TestWalletDebitIsConditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateWalletIfAbsent(ctx, "u1", money.MustParse("100.00")))
	require.NoError(t, s.CreateWalletIfAbsent(ctx, "u1", money.MustParse("999.00")))

	w, err := s.GetWallet(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, money.MustParse("100.00").Equal(w.Balance))

	ok, err := s.DebitWallet(ctx, "u1", money.MustParse("100.01"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DebitWallet(ctx, "u1", money.MustParse("60.50"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.CreditWallet(ctx, "u1", money.MustParse("0.50")))
	w, _ = s.GetWallet(ctx, "u1")
	assert.Equal(t, "40.00", money.Format(w.Balance))

	assert.ErrorIs(t, s.CreditWallet(ctx, "nobody", money.MustParse("1")), domain.ErrNotFound)
}

func TestReviewUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	r := &domain.Review{
		ID: "r1", UserID: "u1", ProductID: "p1", OrderID: "o1",
		Rating: 5, Title: "great", IsVerified: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.InsertReview(ctx, r))

	dup := *r
	dup.ID = "r2"
	assert.ErrorIs(t, s.InsertReview(ctx, &dup), domain.ErrDuplicateReview)

	exists, err := s.ReviewExists(ctx, "u1", "o1", "p1")
	require.NoError(t, err)
	assert.True(t, exists)

	counts, err := s.ProductRatingCounts(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{5: 1}, counts)

	require.NoError(t, s.DeleteReview(ctx, "r1"))
	assert.ErrorIs(t, s.DeleteReview(ctx, "r1"), domain.ErrNotFound)
}

func TestSalesByDayCountsOnlySalesStatuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	insert := func(id string, status domain.OrderStatus) {
		o := &domain.Order{
			ID: id, UserID: "u1", Status: status, ShippingAddress: "a",
			Lines:     []domain.OrderLine{{ProductID: "p1", ProductName: "Whey", Quantity: 2, UnitPrice: money.MustParse("10.00")}},
			CreatedAt: day, UpdatedAt: day,
		}
		o.TotalAmount = o.LinesTotal()
		require.NoError(t, s.InsertOrder(ctx, o))
	}
	insert("o1", domain.StatusPaid)
	insert("o2", domain.StatusCancelled)
	insert("o3", domain.StatusDelivered)

	daily, err := s.SalesByDay(ctx, day.Add(-time.Hour), day.Add(time.Hour), domain.SalesStatuses)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "2026-03-14", daily[0].Day)
	assert.Equal(t, 4, daily[0].Quantity)
	assert.Equal(t, "40.00", money.Format(daily[0].Sales))

	byProduct, err := s.SalesByProduct(ctx, day.Add(-time.Hour), day.Add(time.Hour), domain.SalesStatuses)
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, "Whey", byProduct[0].Name)
}

func TestStatusLogOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendStatusLog(ctx, orderlog.NewEntry(ctx, "o1", "", domain.StatusPending, "u1", "checkout")))
	require.NoError(t, s.AppendStatusLog(ctx, orderlog.NewEntry(ctx, "o1", domain.StatusPending, domain.StatusPaid, "u1", "")))

	entries, err := s.ListStatusLog(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.StatusPending, entries[0].To)
	assert.Equal(t, domain.StatusPaid, entries[1].To)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
