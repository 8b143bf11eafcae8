package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

const (
	DefaultProductsPerPage = 12
	MaxProductsPerPage     = 100
	RankingSize            = 10
)

type ProductInput struct {
	Name       string
	Price      decimal.Decimal
	CategoryID string
	Stock      int
	IsActive   bool
}

// ProductPatch never carries stock: stock moves only through reserve,
// release and Restock. An empty CategoryID uncategorizes the product.
type ProductPatch struct {
	Name       *string
	Price      *decimal.Decimal
	CategoryID *string
	IsActive   *bool
}

// ProductQuery selects one page of the catalog. Only administrators can
// include inactive products.
type ProductQuery struct {
	IncludeInactive bool
	CategoryID      string
	Search          string
	Page            int
	PerPage         int
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() || !p.Equal(p.Round(money.Places)) {
		return fmt.Errorf("price %s: %w", p.String(), domain.ErrInvalidArgument)
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, actor domain.Actor, in ProductInput) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("product name is empty: %w", domain.ErrInvalidArgument)
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("stock %d: %w", in.Stock, domain.ErrInvalidQuantity)
	}

	p := &domain.Product{
		ID:            s.newID(),
		Name:          name,
		Price:         in.Price,
		CategoryID:    in.CategoryID,
		StockQuantity: in.Stock,
		IsActive:      in.IsActive,
		CreatedAt:     s.now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		if err := checkCategory(ctx, tx, p.CategoryID); err != nil {
			return err
		}
		return tx.InsertProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "product created", "product_id", p.ID, "name", p.Name, "stock", p.StockQuantity)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, actor domain.Actor, productID string, patch ProductPatch) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var product *domain.Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return fmt.Errorf("product name is empty: %w", domain.ErrInvalidArgument)
			}
			p.Name = name
		}
		if patch.Price != nil {
			if err := validatePrice(*patch.Price); err != nil {
				return err
			}
			p.Price = *patch.Price
		}
		if patch.CategoryID != nil {
			if err := checkCategory(ctx, tx, *patch.CategoryID); err != nil {
				return err
			}
			p.CategoryID = *patch.CategoryID
		}
		if patch.IsActive != nil {
			p.IsActive = *patch.IsActive
		}
		product = p
		return tx.UpdateProduct(ctx, p)
	})
	return product, err
}

// ListProducts returns one page of the catalog sorted by name, filtered by
// category and by a substring of the name. Pages past the end are empty.
func (s *Service) ListProducts(ctx context.Context, actor domain.Actor, q ProductQuery) (*domain.ProductPage, error) {
	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultProductsPerPage
	}
	if perPage > MaxProductsPerPage {
		perPage = MaxProductsPerPage
	}

	filter := domain.ProductFilter{
		ActiveOnly: !(q.IncludeInactive && actor.IsAdmin),
		CategoryID: q.CategoryID,
		Search:     strings.TrimSpace(q.Search),
	}
	out := &domain.ProductPage{Page: page, PerPage: perPage}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		var err error
		if out.Total, err = tx.CountProducts(ctx, filter); err != nil {
			return err
		}
		out.Pages = (out.Total + perPage - 1) / perPage
		if page > out.Pages {
			return nil
		}
		filter.Limit, filter.Offset = perPage, (page-1)*perPage
		out.Products, err = tx.ListProducts(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProductRanking returns the RankingSize best-selling active products. Ties
// on units sold go to the better average rating. Only orders that count as
// sales contribute units.
func (s *Service) ProductRanking(ctx context.Context) ([]domain.ProductRank, error) {
	ranks, err := s.repo.ProductRanking(ctx, domain.SalesStatuses, RankingSize)
	if err != nil {
		return nil, err
	}
	for i := range ranks {
		ranks[i].AverageRating = math.Round(ranks[i].AverageRating*10) / 10
	}
	return ranks, nil
}

func (s *Service) CreateCategory(ctx context.Context, actor domain.Actor, name, description string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is empty: %w", domain.ErrInvalidArgument)
	}

	c := &domain.Category{
		ID:          s.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now(),
	}
	if err := s.repo.InsertCategory(ctx, c); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// checkCategory rejects a reference to a category that does not exist.
func checkCategory(ctx context.Context, tx ports.Queries, id string) error {
	if id == "" {
		return nil
	}
	_, err := tx.GetCategory(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("unknown category %q: %w", id, domain.ErrInvalidArgument)
	}
	return err
}

// GetProduct hides inactive products from everyone but administrators.
func (s *Service) GetProduct(ctx context.Context, actor domain.Actor, productID string) (*domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive && !actor.IsAdmin {
		return nil, fmt.Errorf("product %q: %w", productID, domain.ErrNotFound)
	}
	return p, nil
}
