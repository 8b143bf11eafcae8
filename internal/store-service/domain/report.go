package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderFilter struct {
	// UserID restricts the listing to one owner; empty lists every order.
	UserID string
	Status OrderStatus
	Limit  int
}

type DailySales struct {
	Day      string
	Quantity int
	Sales    decimal.Decimal
}

type ProductSales struct {
	ProductID string
	Name      string
	Quantity  int
	Sales     decimal.Decimal
}

// CategorySales groups sales by the product's current category. An empty
// CategoryID collects uncategorized products.
type CategorySales struct {
	CategoryID string
	Name       string
	Quantity   int
	Sales      decimal.Decimal
}

type SalesReport struct {
	From       time.Time
	To         time.Time
	Daily      []DailySales
	ByProduct  []ProductSales
	ByCategory []CategorySales
	TotalSales decimal.Decimal
}

type Dashboard struct {
	Products       int
	Orders         int
	OrdersByStatus map[OrderStatus]int
	RecentOrders   []Order
}

// OrderConfirmation is the payload of an order-confirmed notification.
type OrderConfirmation struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	Lines       []OrderLine     `json:"lines"`
	CreatedAt   time.Time       `json:"created_at"`
}
