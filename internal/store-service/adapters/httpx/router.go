package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/httpx/middlewares"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterOptions struct {
	Auth *middlewares.Authenticator
	// Feed serves the admin websocket feed; nil disables the route.
	Feed http.Handler
	DB   Pinger
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middlewares.Trace)
	r.Use(middlewares.Metrics)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz(opts.DB))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Public catalog; a token only widens what admins see.
		r.Group(func(r chi.Router) {
			r.Use(opts.Auth.Optional)
			r.Get("/categories", handler.ListCategories)
			r.Get("/products", handler.ListProducts)
			r.Get("/products/ranking", handler.ProductRanking)
			r.Get("/products/{id}", handler.GetProduct)
			r.Get("/products/{id}/reviews", handler.ListProductReviews)
		})

		r.Group(func(r chi.Router) {
			r.Use(opts.Auth.Require)

			r.Get("/cart", handler.ViewCart)
			r.Put("/cart/lines", handler.UpsertCartLine)
			r.Delete("/cart/lines/{id}", handler.RemoveCartLine)
			r.Post("/cart/checkout", handler.Checkout)

			r.Get("/orders", handler.ListMyOrders)
			r.Get("/orders/{id}", handler.GetOrder)
			r.Get("/orders/{id}/history", handler.OrderHistory)
			r.Post("/orders/{id}/pay", handler.Pay)
			r.Post("/orders/{id}/cancel", handler.transitionTo(domain.StatusCancelled))
			r.Post("/orders/{id}/refund", handler.transitionTo(domain.StatusRefundRequested))
			r.Post("/orders/{id}/transitions", handler.Transition)

			r.Get("/wallet", handler.MyWallet)
			r.Get("/wallets/{userID}", handler.GetWallet)

			r.Post("/reviews", handler.SubmitReview)
			r.Post("/products/{id}/reviews", handler.SubmitProductReview)
			r.Patch("/reviews/{id}", handler.UpdateReview)
			r.Delete("/reviews/{id}", handler.DeleteReview)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewares.RequireAdmin)

				r.Get("/products", handler.ListAllProducts)
				r.Post("/products", handler.CreateProduct)
				r.Patch("/products/{id}", handler.UpdateProduct)
				r.Post("/products/{id}/restock", handler.Restock)
				r.Post("/categories", handler.CreateCategory)

				r.Get("/orders", handler.ListAllOrders)
				r.Post("/orders/{id}/ship", handler.transitionTo(domain.StatusShipped))
				r.Post("/orders/{id}/deliver", handler.transitionTo(domain.StatusDelivered))
				r.Post("/orders/{id}/refund", handler.transitionTo(domain.StatusRefunded))

				r.Get("/reviews", handler.ListAllReviews)

				r.Get("/dashboard", handler.Dashboard)
				r.Get("/reports/sales", handler.SalesReport)

				if opts.Feed != nil {
					r.Handle("/feed", opts.Feed)
				}
			})
		})
	})
	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
