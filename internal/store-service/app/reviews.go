package app

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

const (
	DefaultReviewsPerPage = 2
	MaxReviewsPerPage     = 50
)

type ReviewInput struct {
	OrderID   string
	ProductID string
	Rating    int
	Title     string
	Content   string
}

// ReviewPatch holds the fields an author may change; nil leaves a field as is.
type ReviewPatch struct {
	Rating  *int
	Title   *string
	Content *string
}

// SubmitReview records a verified-purchase review. The order must belong to
// the actor, be delivered and contain the product, and the actor must not
// have reviewed that product for that order yet.
func (s *Service) SubmitReview(ctx context.Context, actor domain.Actor, in ReviewInput) (*domain.Review, error) {
	var review *domain.Review
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		var err error
		review, err = s.submitReview(ctx, tx, actor, in)
		return err
	})
	return review, err
}

// SubmitProductReview reviews a product against the actor's most recent
// delivered order containing it that has not been reviewed yet.
func (s *Service) SubmitProductReview(ctx context.Context, actor domain.Actor, in ReviewInput) (*domain.Review, error) {
	if !domain.ValidRating(in.Rating) {
		return nil, domain.ErrInvalidRating
	}

	var review *domain.Review
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		if _, err := tx.GetProduct(ctx, in.ProductID); err != nil {
			return err
		}
		orderID, err := tx.FindReviewableOrder(ctx, actor.ID, in.ProductID)
		if isNotFound(err) {
			return fmt.Errorf("no delivered order of %q to review: %w", in.ProductID, domain.ErrReviewNotEligible)
		}
		if err != nil {
			return err
		}

		in.OrderID = orderID
		review, err = s.submitReview(ctx, tx, actor, in)
		return err
	})
	return review, err
}

func (s *Service) submitReview(ctx context.Context, tx ports.Queries, actor domain.Actor, in ReviewInput) (*domain.Review, error) {
	o, err := tx.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.ID {
		return nil, fmt.Errorf("order %q: %w", in.OrderID, domain.ErrForbidden)
	}
	if !domain.ValidRating(in.Rating) {
		return nil, domain.ErrInvalidRating
	}
	if o.Status != domain.StatusDelivered {
		return nil, fmt.Errorf("order %q is %s: %w", o.ID, o.Status, domain.ErrReviewNotEligible)
	}
	if !o.Contains(in.ProductID) {
		return nil, fmt.Errorf("product %q in order %q: %w", in.ProductID, o.ID, domain.ErrProductNotInOrder)
	}

	exists, err := tx.ReviewExists(ctx, actor.ID, o.ID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("product %q in order %q: %w", in.ProductID, o.ID, domain.ErrDuplicateReview)
	}

	now := s.now()
	r := &domain.Review{
		ID:         s.newID(),
		UserID:     actor.ID,
		ProductID:  in.ProductID,
		OrderID:    o.ID,
		Rating:     in.Rating,
		Title:      strings.TrimSpace(in.Title),
		Content:    strings.TrimSpace(in.Content),
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// A racing duplicate that passed ReviewExists is caught by the unique
	// index and comes back as ErrDuplicateReview.
	if err := tx.InsertReview(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReview lets the author change rating, title or content.
func (s *Service) UpdateReview(ctx context.Context, actor domain.Actor, reviewID string, patch ReviewPatch) (*domain.Review, error) {
	if patch.Rating != nil && !domain.ValidRating(*patch.Rating) {
		return nil, domain.ErrInvalidRating
	}

	var review *domain.Review
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		r, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if r.UserID != actor.ID {
			return fmt.Errorf("review %q: %w", reviewID, domain.ErrForbidden)
		}
		if patch.Rating != nil {
			r.Rating = *patch.Rating
		}
		if patch.Title != nil {
			r.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Content != nil {
			r.Content = strings.TrimSpace(*patch.Content)
		}
		r.UpdatedAt = s.now()
		review = r
		return tx.UpdateReview(ctx, r)
	})
	return review, err
}

// DeleteReview is allowed to the author and to administrators.
func (s *Service) DeleteReview(ctx context.Context, actor domain.Actor, reviewID string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		r, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(r.UserID) {
			return fmt.Errorf("review %q: %w", reviewID, domain.ErrForbidden)
		}
		return tx.DeleteReview(ctx, reviewID)
	})
}

// ListAllReviews is the moderation view: every review, newest first. A
// zero limit returns all of them.
func (s *Service) ListAllReviews(ctx context.Context, actor domain.Actor, limit int) ([]domain.Review, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListReviews(ctx, limit)
}

// ListProductReviews returns one page of a product's reviews, newest first,
// with the average rating rounded to one decimal and the count per rating.
func (s *Service) ListProductReviews(ctx context.Context, productID string, page, perPage int) (*domain.ReviewPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultReviewsPerPage
	}
	if perPage > MaxReviewsPerPage {
		perPage = MaxReviewsPerPage
	}

	out := &domain.ReviewPage{Page: page, PerPage: perPage, Distribution: make(map[int]int)}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			return err
		}

		counts, err := tx.ProductRatingCounts(ctx, productID)
		if err != nil {
			return err
		}
		sum := 0
		for rating := domain.MinRating; rating <= domain.MaxRating; rating++ {
			n := counts[rating]
			out.Distribution[rating] = n
			out.Total += n
			sum += rating * n
		}
		if out.Total > 0 {
			out.AverageRating = math.Round(float64(sum)/float64(out.Total)*10) / 10
			out.Pages = (out.Total + perPage - 1) / perPage
		}

		// Pages past the end are empty, which also keeps the offset bounded.
		if page > out.Pages {
			return nil
		}
		out.Reviews, err = tx.ListProductReviews(ctx, productID, perPage, (page-1)*perPage)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
