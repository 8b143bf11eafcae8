package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/nutrition-store/internal/orderlog"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

// Queries is every read and write the core needs from persistent storage.
// Lookups of a missing row return domain.ErrNotFound.
type Queries interface {
	InsertProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	// CountProducts ignores the filter's Limit and Offset.
	CountProducts(ctx context.Context, filter domain.ProductFilter) (int, error)
	// UpdateProduct writes name, price, category and is_active. Stock is
	// never written here.
	UpdateProduct(ctx context.Context, p *domain.Product) error

	// InsertCategory returns domain.ErrDuplicateCategory on a name clash.
	InsertCategory(ctx context.Context, c *domain.Category) error
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// ReserveStock decrements stock only if at least qty units remain and
	// reports whether the row was updated.
	ReserveStock(ctx context.Context, productID string, qty int) (bool, error)
	ReleaseStock(ctx context.Context, productID string, qty int) error
	ListLowStock(ctx context.Context, threshold int) ([]domain.LowStockItem, error)

	GetCartLine(ctx context.Context, id string) (*domain.CartLine, error)
	FindCartLine(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	ListCartLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	InsertCartLine(ctx context.Context, line *domain.CartLine) error
	UpdateCartLineQuantity(ctx context.Context, id string, qty int) error
	DeleteCartLine(ctx context.Context, id string) error
	DeleteCartLines(ctx context.Context, userID string) error

	InsertOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	// UpdateOrderStatusIf moves the order to `to` only while it is still in
	// `from` and reports whether it did.
	UpdateOrderStatusIf(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)

	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	CreateWalletIfAbsent(ctx context.Context, userID string, balance decimal.Decimal) error
	// DebitWallet subtracts amount only if the balance covers it.
	DebitWallet(ctx context.Context, userID string, amount decimal.Decimal) (bool, error)
	CreditWallet(ctx context.Context, userID string, amount decimal.Decimal) error

	// InsertReview returns domain.ErrDuplicateReview on a (user, product, order) clash.
	InsertReview(ctx context.Context, r *domain.Review) error
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	ReviewExists(ctx context.Context, userID, orderID, productID string) (bool, error)
	UpdateReview(ctx context.Context, r *domain.Review) error
	DeleteReview(ctx context.Context, id string) error
	ListProductReviews(ctx context.Context, productID string, limit, offset int) ([]domain.Review, error)
	ListReviews(ctx context.Context, limit int) ([]domain.Review, error)
	ProductRatingCounts(ctx context.Context, productID string) (map[int]int, error)
	FindReviewableOrder(ctx context.Context, userID, productID string) (string, error)

	CountOrdersByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	SalesByDay(ctx context.Context, from, to time.Time, statuses []domain.OrderStatus) ([]domain.DailySales, error)
	SalesByProduct(ctx context.Context, from, to time.Time, statuses []domain.OrderStatus) ([]domain.ProductSales, error)
	SalesByCategory(ctx context.Context, from, to time.Time, statuses []domain.OrderStatus) ([]domain.CategorySales, error)
	ProductRanking(ctx context.Context, statuses []domain.OrderStatus, limit int) ([]domain.ProductRank, error)

	orderlog.Repository
}

// Repository runs Queries directly or inside one transaction. When fn
// returns an error every write made through tx is rolled back.
type Repository interface {
	Queries
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Queries) error) error
}
