package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	// CategoryID is empty for uncategorized products.
	CategoryID    string
	StockQuantity int
	IsActive      bool
	CreatedAt     time.Time
}

type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// ProductFilter narrows a catalog listing. Zero values match everything;
// a zero Limit returns every match.
type ProductFilter struct {
	ActiveOnly bool
	CategoryID string
	// Search matches a substring of the product name.
	Search string
	Limit  int
	Offset int
}

// ProductPage is one page of a filtered catalog listing.
type ProductPage struct {
	Products []Product
	Total    int
	Page     int
	PerPage  int
	Pages    int
}

// ProductRank is one entry of the best-seller ranking.
type ProductRank struct {
	Product       Product
	UnitsSold     int
	AverageRating float64
}

// LowStockItem is one entry of a low-stock notification.
type LowStockItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}
