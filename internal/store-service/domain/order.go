package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
)

type Order struct {
	ID              string
	UserID          string
	Lines           []OrderLine
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	ShippingAddress string
	PaymentMethod   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLine snapshots the product name and unit price at checkout so the
// order keeps its value when the catalog changes.
type OrderLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return money.LineTotal(l.UnitPrice, l.Quantity)
}

// LinesTotal sums the line subtotals. At creation it equals TotalAmount.
func (o *Order) LinesTotal() decimal.Decimal {
	total := money.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Contains reports whether any line references productID.
func (o *Order) Contains(productID string) bool {
	for _, l := range o.Lines {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}

// OwnedBy reports whether the actor may act as the order's owner.
func (o *Order) OwnedBy(a Actor) bool {
	return o.UserID == a.ID
}

type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusPaid            OrderStatus = "paid"
	StatusShipped         OrderStatus = "shipped"
	StatusDelivered       OrderStatus = "delivered"
	StatusRefundRequested OrderStatus = "refund_requested"
	StatusRefunded        OrderStatus = "refunded"
	StatusCancelled       OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusPaid,
	StatusShipped,
	StatusDelivered,
	StatusRefundRequested,
	StatusRefunded,
	StatusCancelled,
}

// Transitions is the single source of truth for legal status moves.
var Transitions = map[OrderStatus][]OrderStatus{
	StatusPending:         {StatusPaid, StatusCancelled},
	StatusPaid:            {StatusShipped, StatusRefundRequested},
	StatusShipped:         {StatusDelivered, StatusRefundRequested},
	StatusRefundRequested: {StatusRefunded},
	StatusDelivered:       {},
	StatusRefunded:        {},
	StatusCancelled:       {},
}

// CanTransition reports whether from -> to appears in Transitions.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range Transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a *TransitionError when from -> to is not legal.
func CheckTransition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

func (s OrderStatus) Valid() bool {
	_, ok := Transitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := Transitions[s]
	return ok && len(next) == 0
}

// ParseStatus maps user input to a known status.
func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", ErrInvalidArgument
	}
	return st, nil
}

// SalesStatuses are the statuses counted as revenue by reports.
var SalesStatuses = []OrderStatus{StatusPaid, StatusShipped, StatusDelivered, StatusRefundRequested}
