package domain

import (
	"errors"
	"fmt"
)

// Business errors. All of them are recoverable by the caller; transports
// map them to user-facing responses.
var (
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrIllegalTransition   = errors.New("illegal status transition")
	ErrForbidden           = errors.New("forbidden")
	ErrAlreadyPaid         = errors.New("order already paid")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrProductNotInOrder   = errors.New("product not in order")
	ErrDuplicateReview     = errors.New("review already exists")
	ErrDuplicateCategory   = errors.New("category already exists")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrNotFound            = errors.New("not found")
	ErrReviewNotEligible   = errors.New("only delivered purchases can be reviewed")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// StockError names the product that could not be reserved.
type StockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// TransitionError reports the current and requested status of a rejected move.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }
