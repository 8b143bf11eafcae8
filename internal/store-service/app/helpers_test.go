package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/sqlstore"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

var (
	admin = domain.Actor{ID: "admin", IsAdmin: true}
	alice = domain.Actor{ID: "alice"}
	bob   = domain.Actor{ID: "bob"}
)

type recordingNotifier struct {
	mu        sync.Mutex
	lowStock  [][]domain.LowStockItem
	confirmed []domain.OrderConfirmation
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, items []domain.LowStockItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lowStock = append(n.lowStock, items)
	return nil
}

func (n *recordingNotifier) NotifyOrderConfirmed(_ context.Context, c domain.OrderConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, c)
	return nil
}

func (n *recordingNotifier) confirmations() []domain.OrderConfirmation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.OrderConfirmation(nil), n.confirmed...)
}

func (n *recordingNotifier) lowStockBatches() [][]domain.LowStockItem {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]domain.LowStockItem(nil), n.lowStock...)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]string)
	}
	c.data[key] = value.(string)
	return nil
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) GenerateKey(operation, key string) string {
	return "test:" + operation + ":" + key
}

type fixture struct {
	svc        *Service
	store      *sqlstore.Store
	notifier   *recordingNotifier
	dispatcher *Dispatcher
	monitor    *LowStockMonitor
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	n := &recordingNotifier{}
	d := NewDispatcher(n, time.Second)
	// Started far enough in the past that the first check is due.
	m := NewLowStockMonitor(time.Now().Add(-48*time.Hour), 24*time.Hour, 10)

	return &fixture{
		svc:        NewService(store, d, m, opts...),
		store:      store,
		notifier:   n,
		dispatcher: d,
		monitor:    m,
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *domain.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), admin, ProductInput{
		Name:     name,
		Price:    money.MustParse(price),
		Stock:    stock,
		IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func (f *fixture) balance(t *testing.T, userID string) string {
	t.Helper()
	w, err := f.svc.Wallet(context.Background(), domain.Actor{ID: userID}, userID)
	require.NoError(t, err)
	return money.Format(w.Balance)
}

// wheyAndCreatine builds the reference cart: 2 x 89.90 + 1 x 129.00 = 308.80.
func (f *fixture) wheyAndCreatine(t *testing.T, userID string) (whey, creatine *domain.Product) {
	t.Helper()
	ctx := context.Background()
	whey = f.product(t, "Whey Protein", "89.90", 100)
	creatine = f.product(t, "Creatine", "129.00", 50)
	_, err := f.svc.UpsertCartLine(ctx, userID, whey.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.UpsertCartLine(ctx, userID, creatine.ID, 1)
	require.NoError(t, err)
	return whey, creatine
}

func (f *fixture) checkout(t *testing.T, userID string) *domain.Order {
	t.Helper()
	o, err := f.svc.Checkout(context.Background(), userID, CheckoutRequest{})
	require.NoError(t, err)
	return o
}

func (f *fixture) deliveredOrder(t *testing.T, userID string) (*domain.Order, *domain.Product) {
	t.Helper()
	ctx := context.Background()
	whey, _ := f.wheyAndCreatine(t, userID)
	o := f.checkout(t, userID)
	actor := domain.Actor{ID: userID}
	_, err := f.svc.Pay(ctx, actor, o.ID)
	require.NoError(t, err)
	_, err = f.svc.Ship(ctx, admin, o.ID)
	require.NoError(t, err)
	_, err = f.svc.Deliver(ctx, admin, o.ID)
	require.NoError(t, err)
	return o, whey
}
