package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
)

// CartLine is unique per (UserID, ProductID).
type CartLine struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

// CartItem is a cart line joined with the live product for display.
type CartItem struct {
	Line    CartLine
	Product Product
}

func (i CartItem) Subtotal() decimal.Decimal {
	return money.LineTotal(i.Product.Price, i.Line.Quantity)
}

type Cart struct {
	UserID string
	Items  []CartItem
}

func (c Cart) Total() decimal.Decimal {
	total := money.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}
