package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/nutrition-store/internal/orderlog"
	"github.com/jcmexdev/nutrition-store/internal/pkg/metrics"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// GetOrder returns an order to its owner or an administrator.
func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(o.UserID) {
		return nil, fmt.Errorf("order %q: %w", orderID, domain.ErrForbidden)
	}
	return o, nil
}

// ListMyOrders returns the actor's own orders, newest first.
func (s *Service) ListMyOrders(ctx context.Context, actor domain.Actor, status domain.OrderStatus) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx, domain.OrderFilter{UserID: actor.ID, Status: status})
}

// ListAllOrders is the administrator's view over every order.
func (s *Service) ListAllOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx, filter)
}

// OrderHistory returns the status log of an order, oldest entry first.
func (s *Service) OrderHistory(ctx context.Context, actor domain.Actor, orderID string) ([]orderlog.Entry, error) {
	if _, err := s.GetOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListStatusLog(ctx, orderID)
}

// Transition moves an order to a new status following domain.Transitions.
// Shipping and refund approval are reserved to administrators. Cancelling puts every line back into stock; approving a refund credits the
// owner's wallet. Payment is not a transition: moving to paid goes through
// Pay.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, orderID string, to domain.OrderStatus) (order *domain.Order, err error) {
	ctx, end := s.startSpan(ctx, "Transition", attribute.String("order_id", orderID), attribute.String("to", string(to)))
	defer func() { end(err) }()

	if !to.Valid() {
		return nil, fmt.Errorf("status %q: %w", to, domain.ErrInvalidArgument)
	}

	var from domain.OrderStatus
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx ports.Queries) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(o.UserID) {
			return fmt.Errorf("order %q: %w", orderID, domain.ErrForbidden)
		}
		if to == domain.StatusRefunded && !actor.IsAdmin {
			return fmt.Errorf("refund approval for %q: %w", orderID, domain.ErrForbidden)
		}
		// Owners confirm delivery but only staff dispatch.
		if to == domain.StatusShipped && !actor.IsAdmin {
			return fmt.Errorf("shipping %q: %w", orderID, domain.ErrForbidden)
		}
		if to == domain.StatusPaid {
			return &domain.TransitionError{From: o.Status, To: to}
		}
		if err := domain.CheckTransition(o.Status, to); err != nil {
			return err
		}

		from = o.Status
		if err := s.applyTransition(ctx, tx, actor, o, to, ""); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(from), string(to)).Inc()
	slog.InfoContext(ctx, "order status changed",
		"order_id", orderID, "from", from, "to", to, "actor_id", actor.ID)
	return order, nil
}

func (s *Service) Cancel(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.StatusCancelled)
}

func (s *Service) Ship(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.StatusShipped)
}

func (s *Service) Deliver(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.StatusDelivered)
}

func (s *Service) RequestRefund(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.StatusRefundRequested)
}

func (s *Service) ApproveRefund(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return s.Transition(ctx, actor, orderID, domain.StatusRefunded)
}

// applyTransition writes the status with compare-and-set against o.Status,
// runs the side effect of the destination status and appends the log entry.
// The caller has already checked that o.Status -> to is legal.
func (s *Service) applyTransition(ctx context.Context, tx ports.Queries, actor domain.Actor, o *domain.Order, to domain.OrderStatus, note string) error {
	if err := casStatus(ctx, tx, o.ID, o.Status, to); err != nil {
		return err
	}

	switch to {
	case domain.StatusCancelled:
		for _, l := range o.Lines {
			if err := release(ctx, tx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
	case domain.StatusRefunded:
		// Reached only when the CAS above moved the order out of
		// refund_requested, so the owner is credited once.
		if err := s.credit(ctx, tx, o.UserID, o.TotalAmount); err != nil {
			return err
		}
		if note == "" {
			note = "wallet credit " + o.TotalAmount.StringFixed(2)
		}
	}

	if err := tx.AppendStatusLog(ctx, orderlog.NewEntry(ctx, o.ID, o.Status, to, actor.ID, note)); err != nil {
		return err
	}

	o.Status = to
	o.UpdatedAt = s.now()
	return nil
}

// casStatus moves orderID from -> to, or reports the transition from the
// status a concurrent writer left behind.
func casStatus(ctx context.Context, tx ports.Queries, orderID string, from, to domain.OrderStatus) error {
	ok, err := tx.UpdateOrderStatusIf(ctx, orderID, from, to)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	fresh, err := tx.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return &domain.TransitionError{From: fresh.Status, To: to}
}
