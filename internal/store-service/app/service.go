// Package app holds the store's use cases: the inventory and wallet ledgers,
// the cart and its checkout, the order state machine, payment, the review
// gate, the catalog and sales reports.
//
// Every externally visible operation runs in exactly one repository
// transaction. Notifications are handed to the Dispatcher only after the
// transaction committed.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/nutrition-store/internal/pkg/cache"
	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

const (
	DefaultShippingAddress = "default address"
	DefaultPaymentMethod   = "wallet"
	DefaultIdempotencyTTL  = 24 * time.Hour
)

// DefaultInitialBalance is credited to a wallet the first time it is used.
var DefaultInitialBalance = money.MustParse("1000.00")

type Service struct {
	repo       ports.Repository
	dispatcher *Dispatcher
	lowStock   *LowStockMonitor

	cache          cache.Cache
	idempotencyTTL time.Duration
	initialBalance decimal.Decimal

	now    func() time.Time
	newID  func() string
	tracer trace.Tracer
}

type Option func(*Service)

// WithCache enables idempotent checkout. A nil cache disables it.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

func WithInitialBalance(b decimal.Decimal) Option {
	return func(s *Service) { s.initialBalance = b }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo ports.Repository, dispatcher *Dispatcher, lowStock *LowStockMonitor, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		dispatcher:     dispatcher,
		lowStock:       lowStock,
		idempotencyTTL: DefaultIdempotencyTTL,
		initialBalance: DefaultInitialBalance,
		now:            time.Now,
		newID:          uuid.NewString,
		tracer:         otel.Tracer("store-service/app"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// startSpan opens a span named after the use case. Call the returned func
// with the operation's final error.
func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "app."+name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin {
		return fmt.Errorf("admin required for %q: %w", actor.ID, domain.ErrForbidden)
	}
	return nil
}
