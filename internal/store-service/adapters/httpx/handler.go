package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/nutrition-store/internal/pkg/interceptors"
	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/httpx/middlewares"
	"github.com/jcmexdev/nutrition-store/internal/store-service/app"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

const defaultReportDays = 30

// Handler exposes the store use cases over JSON.
type Handler struct {
	svc *app.Service
}

func NewHandler(svc *app.Service) *Handler {
	return &Handler{svc: svc}
}

// actor returns the authenticated caller, or the anonymous actor on public
// routes.
func actor(r *http.Request) domain.Actor {
	a, _ := middlewares.ActorFrom(r.Context())
	return a
}

// Catalog

// ListProducts pages through the catalog. category_id=all is the same as
// no category filter.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, r.URL.Query().Get("include_inactive") == "true")
}

// ListAllProducts is the admin catalog, inactive products included.
func (h *Handler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, true)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	perPage, err := intParam(r, "per_page", app.DefaultProductsPerPage)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	q := r.URL.Query()
	category := q.Get("category_id")
	if category == "all" {
		category = ""
	}

	p, err := h.svc.ListProducts(r.Context(), actor(r), app.ProductQuery{
		IncludeInactive: includeInactive,
		CategoryID:      category,
		Search:          q.Get("search"),
		Page:            page,
		PerPage:         perPage,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProductPage(p))
}

func (h *Handler) ProductRanking(w http.ResponseWriter, r *http.Request) {
	ranks, err := h.svc.ProductRanking(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapRanking(ranks))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCategories(cs))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), actor(r), req.Name, req.Description)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCategory(c))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), actor(r), req.toInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), actor(r), chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.Restock(r.Context(), actor(r), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

// Cart

func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.ViewCart(r.Context(), actor(r).ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart))
}

func (h *Handler) UpsertCartLine(w http.ResponseWriter, r *http.Request) {
	var req CartLineRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	line, err := h.svc.UpsertCartLine(r.Context(), actor(r).ID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartLine(line))
}

func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveCartLine(r.Context(), actor(r).ID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	a := actor(r)
	slog.InfoContext(r.Context(), "checkout", "request_id", interceptors.RequestIDFromContext(r.Context()), "user_id", a.ID)

	order, err := h.svc.Checkout(r.Context(), a.ID, app.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  interceptors.IdempotencyKeyFromContext(r.Context()),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrder(order))
}

// Orders

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	status, err := statusParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	orders, err := h.svc.ListMyOrders(r.Context(), actor(r), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	status, err := statusParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	orders, err := h.svc.ListAllOrders(r.Context(), actor(r), domain.OrderFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.GetOrder(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.OrderHistory(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapHistory(entries))
}

func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Pay(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentResponse{Order: mapOrder(res.Order), Wallet: mapWallet(res.Balance)})
}

// Transition applies the status named in the body; the dedicated routes
// below are shorthands for it.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.transition(w, r, domain.OrderStatus(req.Status))
}

func (h *Handler) transitionTo(to domain.OrderStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.transition(w, r, to)
	}
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to domain.OrderStatus) {
	order, err := h.svc.Transition(r.Context(), actor(r), chi.URLParam(r, "id"), to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

// Wallet

func (h *Handler) MyWallet(w http.ResponseWriter, r *http.Request) {
	h.wallet(w, r, actor(r).ID)
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	h.wallet(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) wallet(w http.ResponseWriter, r *http.Request, userID string) {
	wallet, err := h.svc.Wallet(r.Context(), actor(r), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapWallet(wallet))
}

// Reviews

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.OrderID == "" {
		writeDomainError(w, r, invalid("order_id is required"))
		return
	}
	review, err := h.svc.SubmitReview(r.Context(), actor(r), req.toInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapReview(review))
}

// SubmitProductReview picks the order itself: the newest delivered order of
// the product that has no review from the caller yet.
func (h *Handler) SubmitProductReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := decode(r, &withProduct{ReviewRequest: &req, productID: chi.URLParam(r, "id")}); err != nil {
		writeDomainError(w, r, err)
		return
	}
	review, err := h.svc.SubmitProductReview(r.Context(), actor(r), req.toInput())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapReview(review))
}

// withProduct fills product_id from the URL before validation.
type withProduct struct {
	*ReviewRequest
	productID string
}

func (p *withProduct) Validate() error {
	p.ProductID = p.productID
	return p.ReviewRequest.Validate()
}

func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var req UpdateReviewRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	review, err := h.svc.UpdateReview(r.Context(), actor(r), chi.URLParam(r, "id"), app.ReviewPatch{
		Rating:  req.Rating,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReview(review))
}

func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteReview(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	perPage, err := intParam(r, "per_page", app.DefaultReviewsPerPage)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.ListProductReviews(r.Context(), chi.URLParam(r, "id"), page, perPage)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReviewPage(p))
}

func (h *Handler) ListAllReviews(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	rs, err := h.svc.ListAllReviews(r.Context(), actor(r), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReviews(rs))
}

// Admin reports

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context(), actor(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDashboard(d))
}

// SalesReport answers JSON, or an xlsx workbook with format=xlsx. from and
// to are inclusive dates; the default is the last 30 days.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportRange(r, time.Now().UTC())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	report, err := h.svc.SalesReport(r.Context(), actor(r), from, to)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "xlsx" {
		writeSalesWorkbook(w, r, report)
		return
	}
	writeJSON(w, http.StatusOK, mapSalesReport(report))
}

func statusParam(r *http.Request) (domain.OrderStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return "", nil
	}
	s, err := domain.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("status %q: %w", raw, err)
	}
	return s, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, invalid(name + " must be a non-negative integer")
	}
	return n, nil
}

// reportRange returns the half-open range [from, to+1day).
func reportRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := today
	from := today.AddDate(0, 0, -(defaultReportDays - 1))

	q := r.URL.Query()
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("to must be YYYY-MM-DD")
		}
		to = t
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, time.Time{}, invalid("from must be YYYY-MM-DD")
		}
		from = t
	}
	return from, to.AddDate(0, 0, 1), nil
}
