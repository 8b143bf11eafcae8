package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/nutrition-store/internal/orderlog"
	"github.com/jcmexdev/nutrition-store/internal/pkg/metrics"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

type CheckoutRequest struct {
	ShippingAddress string
	PaymentMethod   string
	// IdempotencyKey makes a retried checkout return the first order.
	IdempotencyKey string
}

// UpsertCartLine sets the quantity of a product in the user's cart, adding
// the line if needed.
func (s *Service) UpsertCartLine(ctx context.Context, userID, productID string, qty int) (line *domain.CartLine, err error) {
	ctx, end := s.startSpan(ctx, "UpsertCartLine", attribute.String("product_id", productID), attribute.Int("qty", qty))
	defer func() { end(err) }()

	if qty < 1 {
		return nil, fmt.Errorf("quantity %d: %w", qty, domain.ErrInvalidQuantity)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return fmt.Errorf("product %q is inactive: %w", productID, domain.ErrNotFound)
		}
		if qty > p.StockQuantity {
			return &domain.StockError{ProductID: p.ID, ProductName: p.Name, Requested: qty, Available: p.StockQuantity}
		}

		existing, err := tx.FindCartLine(ctx, userID, productID)
		switch {
		case err == nil:
			existing.Quantity = qty
			line = existing
			return tx.UpdateCartLineQuantity(ctx, existing.ID, qty)
		case isNotFound(err):
			line = &domain.CartLine{
				ID:        s.newID(),
				UserID:    userID,
				ProductID: productID,
				Quantity:  qty,
				AddedAt:   s.now(),
			}
			return tx.InsertCartLine(ctx, line)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// RemoveCartLine deletes one of the user's own cart lines.
func (s *Service) RemoveCartLine(ctx context.Context, userID, lineID string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		line, err := tx.GetCartLine(ctx, lineID)
		if err != nil {
			return err
		}
		if line.UserID != userID {
			return fmt.Errorf("cart line %q: %w", lineID, domain.ErrForbidden)
		}
		return tx.DeleteCartLine(ctx, lineID)
	})
}

// ViewCart joins the cart with live product data.
func (s *Service) ViewCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		lines, err := tx.ListCartLines(ctx, userID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			p, err := tx.GetProduct(ctx, l.ProductID)
			if err != nil {
				return err
			}
			cart.Items = append(cart.Items, domain.CartItem{Line: l, Product: *p})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Checkout converts the user's cart into a pending order. Stock for every
// line is reserved, the order and its lines are written and the cart is
// emptied in one transaction: any failure leaves stock, orders and cart
// exactly as they were.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (order *domain.Order, err error) {
	ctx, end := s.startSpan(ctx, "Checkout", attribute.String("user_id", userID))
	defer func() { end(err) }()

	cacheKey := s.checkoutCacheKey(userID, req.IdempotencyKey)
	if prior := s.recallCheckout(ctx, cacheKey); prior != "" {
		o, err := s.repo.GetOrder(ctx, prior)
		if err == nil {
			slog.InfoContext(ctx, "checkout replayed", "order_id", o.ID, "idempotency_key", req.IdempotencyKey)
			return o, nil
		}
		slog.WarnContext(ctx, "idempotent checkout points at missing order", "order_id", prior, "error", err)
	}

	address := strings.TrimSpace(req.ShippingAddress)
	if address == "" {
		address = DefaultShippingAddress
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = DefaultPaymentMethod
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		lines, err := tx.ListCartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("checkout for %q: %w", userID, domain.ErrEmptyCart)
		}

		now := s.now()
		order = &domain.Order{
			ID:              s.newID(),
			UserID:          userID,
			Status:          domain.StatusPending,
			ShippingAddress: address,
			PaymentMethod:   method,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		// Validate every line before touching stock so the error names the
		// first product that cannot be served.
		for _, l := range lines {
			p, err := tx.GetProduct(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if !p.IsActive {
				return fmt.Errorf("product %q is inactive: %w", p.ID, domain.ErrNotFound)
			}
			if l.Quantity > p.StockQuantity {
				return &domain.StockError{ProductID: p.ID, ProductName: p.Name, Requested: l.Quantity, Available: p.StockQuantity}
			}
			order.Lines = append(order.Lines, domain.OrderLine{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				UnitPrice:   p.Price,
			})
		}
		order.TotalAmount = order.LinesTotal()

		for _, l := range order.Lines {
			if err := reserve(ctx, tx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.DeleteCartLines(ctx, userID); err != nil {
			return err
		}
		return tx.AppendStatusLog(ctx, orderlog.NewEntry(ctx, order.ID, "", domain.StatusPending, userID, "checkout"))
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	slog.InfoContext(ctx, "order created",
		"order_id", order.ID, "user_id", userID, "lines", len(order.Lines), "total", order.TotalAmount.StringFixed(2))

	s.rememberCheckout(ctx, cacheKey, order.ID)
	s.dispatcher.OrderConfirmed(ctx, domain.OrderConfirmation{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		Lines:       order.Lines,
		CreatedAt:   order.CreatedAt,
	})
	s.checkLowStock(ctx)
	return order, nil
}

func (s *Service) checkoutCacheKey(userID, idempotencyKey string) string {
	if s.cache == nil || idempotencyKey == "" {
		return ""
	}
	return s.cache.GenerateKey("checkout", userID+":"+idempotencyKey)
}

// Cache failures degrade to a non-idempotent checkout.
func (s *Service) recallCheckout(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	id, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "idempotency cache read failed", "key", key, "error", err)
		return ""
	}
	return id
}

func (s *Service) rememberCheckout(ctx context.Context, key, orderID string) {
	if key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, orderID, s.idempotencyTTL); err != nil {
		slog.WarnContext(ctx, "idempotency cache write failed", "key", key, "error", err)
	}
}
