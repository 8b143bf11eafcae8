package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet balances change only through payment debits and refund credits.
type Wallet struct {
	UserID    string
	Balance   decimal.Decimal
	UpdatedAt time.Time
}

// Actor is the authenticated caller as supplied by the identity provider.
type Actor struct {
	ID      string
	IsAdmin bool
}

// CanAccess reports whether the actor is the owner or an administrator.
func (a Actor) CanAccess(ownerID string) bool {
	return a.IsAdmin || a.ID == ownerID
}
