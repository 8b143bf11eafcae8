package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         string
	UserID     string
	ProductID  string
	OrderID    string
	Rating     int
	Title      string
	Content    string
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// ReviewPage is one page of a product's reviews plus aggregate figures.
type ReviewPage struct {
	Reviews       []Review
	AverageRating float64
	Total         int
	Distribution  map[int]int
	Page          int
	PerPage       int
	Pages         int
}
