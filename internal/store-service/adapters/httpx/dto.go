package httpx

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/nutrition-store/internal/orderlog"
	"github.com/jcmexdev/nutrition-store/internal/pkg/money"
	"github.com/jcmexdev/nutrition-store/internal/store-service/app"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

// Requests. Validate runs before anything reaches the app layer and wraps
// domain.ErrInvalidArgument unless a sharper sentinel exists.

type CartLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (r CartLineRequest) Validate() error {
	if r.ProductID == "" {
		return invalid("product_id is required")
	}
	if r.Quantity < 1 {
		return fmt.Errorf("quantity %d: %w", r.Quantity, domain.ErrInvalidQuantity)
	}
	return nil
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

func (r CheckoutRequest) Validate() error {
	if len(r.ShippingAddress) > 500 {
		return invalid("shipping_address is too long")
	}
	return nil
}

type TransitionRequest struct {
	Status string `json:"status"`
}

func (r TransitionRequest) Validate() error {
	if r.Status == "" {
		return invalid("status is required")
	}
	return nil
}

type CreateProductRequest struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	CategoryID string `json:"category_id"`
	Stock      int    `json:"stock"`
	IsActive   *bool  `json:"is_active"`
}

func (r CreateProductRequest) Validate() error {
	if r.Name == "" {
		return invalid("name is required")
	}
	if _, err := money.Parse(r.Price); err != nil {
		return invalid("price must be an amount with at most two decimals")
	}
	if r.Stock < 0 {
		return invalid("stock must not be negative")
	}
	return nil
}

func (r CreateProductRequest) toInput() app.ProductInput {
	price, _ := money.Parse(r.Price)
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return app.ProductInput{Name: r.Name, Price: price, CategoryID: r.CategoryID, Stock: r.Stock, IsActive: active}
}

type UpdateProductRequest struct {
	Name  *string `json:"name"`
	Price *string `json:"price"`
	// CategoryID set to "" uncategorizes the product.
	CategoryID *string `json:"category_id"`
	IsActive   *bool   `json:"is_active"`
}

func (r UpdateProductRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return invalid("name must not be empty")
	}
	if r.Price != nil {
		if _, err := money.Parse(*r.Price); err != nil {
			return invalid("price must be an amount with at most two decimals")
		}
	}
	return nil
}

func (r UpdateProductRequest) toPatch() app.ProductPatch {
	patch := app.ProductPatch{Name: r.Name, CategoryID: r.CategoryID, IsActive: r.IsActive}
	if r.Price != nil {
		p, _ := money.Parse(*r.Price)
		patch.Price = &p
	}
	return patch
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r CategoryRequest) Validate() error {
	if r.Name == "" {
		return invalid("name is required")
	}
	if len(r.Name) > 100 {
		return invalid("name is too long")
	}
	return nil
}

type RestockRequest struct {
	Quantity int `json:"quantity"`
}

func (r RestockRequest) Validate() error {
	if r.Quantity < 1 {
		return fmt.Errorf("quantity %d: %w", r.Quantity, domain.ErrInvalidQuantity)
	}
	return nil
}

type ReviewRequest struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

func (r ReviewRequest) Validate() error {
	if r.ProductID == "" {
		return invalid("product_id is required")
	}
	if !domain.ValidRating(r.Rating) {
		return domain.ErrInvalidRating
	}
	return nil
}

func (r ReviewRequest) toInput() app.ReviewInput {
	return app.ReviewInput{
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Title:     r.Title,
		Content:   r.Content,
	}
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (r UpdateReviewRequest) Validate() error {
	if r.Rating != nil && !domain.ValidRating(*r.Rating) {
		return domain.ErrInvalidRating
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, domain.ErrInvalidArgument)
}

var errBadJSON = errors.New("malformed json body")

// Responses. Amounts are strings with two decimals.

type ProductResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	CategoryID    string `json:"category_id,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

type ProductPageResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"current_page"`
	PerPage  int               `json:"per_page"`
	Pages    int               `json:"pages"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type RankingEntryResponse struct {
	Rank          int             `json:"rank"`
	Product       ProductResponse `json:"product"`
	UnitsSold     int             `json:"units_sold"`
	AverageRating float64         `json:"average_rating"`
}

type CartItemResponse struct {
	LineID      string `json:"line_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type CartResponse struct {
	UserID string             `json:"user_id"`
	Items  []CartItemResponse `json:"items"`
	Total  string             `json:"total"`
}

type CartLineResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	AddedAt   string `json:"added_at"`
}

type OrderLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Status          string              `json:"status"`
	TotalAmount     string              `json:"total_amount"`
	ShippingAddress string              `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	Lines           []OrderLineResponse `json:"lines"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

type WalletResponse struct {
	UserID    string `json:"user_id"`
	Balance   string `json:"balance"`
	UpdatedAt string `json:"updated_at"`
}

type PaymentResponse struct {
	Order  OrderResponse  `json:"order"`
	Wallet WalletResponse `json:"wallet"`
}

type HistoryEntryResponse struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	ActorID   string `json:"actor_id"`
	Note      string `json:"note,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ReviewResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	ProductID  string `json:"product_id"`
	OrderID    string `json:"order_id"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ReviewPageResponse struct {
	Reviews       []ReviewResponse `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
	TotalReviews  int              `json:"total_reviews"`
	Distribution  map[int]int      `json:"rating_distribution"`
	Page          int              `json:"page"`
	PerPage       int              `json:"per_page"`
	Pages         int              `json:"pages"`
}

type DashboardResponse struct {
	Products       int             `json:"products"`
	Orders         int             `json:"orders"`
	OrdersByStatus map[string]int  `json:"orders_by_status"`
	RecentOrders   []OrderResponse `json:"recent_orders"`
}

type DailySalesResponse struct {
	Day      string `json:"day"`
	Quantity int    `json:"quantity"`
	Sales    string `json:"sales"`
}

type ProductSalesResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Sales     string `json:"sales"`
}

type CategorySalesResponse struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Sales      string `json:"sales"`
}

type SalesReportResponse struct {
	From       string                  `json:"from"`
	To         string                  `json:"to"`
	Daily      []DailySalesResponse    `json:"daily"`
	ByProduct  []ProductSalesResponse  `json:"by_product"`
	ByCategory []CategorySalesResponse `json:"by_category"`
	TotalSales string                  `json:"total_sales"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func amount(d decimal.Decimal) string { return money.Format(d) }

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func mapProduct(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         amount(p.Price),
		CategoryID:    p.CategoryID,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     stamp(p.CreatedAt),
	}
}

func mapProducts(ps []domain.Product) []ProductResponse {
	out := make([]ProductResponse, len(ps))
	for i := range ps {
		out[i] = mapProduct(&ps[i])
	}
	return out
}

func mapProductPage(p *domain.ProductPage) ProductPageResponse {
	return ProductPageResponse{
		Products: mapProducts(p.Products),
		Total:    p.Total,
		Page:     p.Page,
		PerPage:  p.PerPage,
		Pages:    p.Pages,
	}
}

func mapCategory(c *domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: stamp(c.CreatedAt)}
}

func mapCategories(cs []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(cs))
	for i := range cs {
		out[i] = mapCategory(&cs[i])
	}
	return out
}

func mapRanking(ranks []domain.ProductRank) []RankingEntryResponse {
	out := make([]RankingEntryResponse, len(ranks))
	for i := range ranks {
		out[i] = RankingEntryResponse{
			Rank:          i + 1,
			Product:       mapProduct(&ranks[i].Product),
			UnitsSold:     ranks[i].UnitsSold,
			AverageRating: ranks[i].AverageRating,
		}
	}
	return out
}

func mapReviews(rs []domain.Review) []ReviewResponse {
	out := make([]ReviewResponse, len(rs))
	for i := range rs {
		out[i] = mapReview(&rs[i])
	}
	return out
}

// categoryName labels the bucket of uncategorized sales.
func categoryName(c domain.CategorySales) string {
	if c.CategoryID == "" {
		return "Uncategorized"
	}
	return c.Name
}

func mapCart(c *domain.Cart) CartResponse {
	out := CartResponse{UserID: c.UserID, Items: make([]CartItemResponse, len(c.Items)), Total: amount(c.Total())}
	for i, it := range c.Items {
		out.Items[i] = CartItemResponse{
			LineID:      it.Line.ID,
			ProductID:   it.Product.ID,
			ProductName: it.Product.Name,
			UnitPrice:   amount(it.Product.Price),
			Quantity:    it.Line.Quantity,
			Subtotal:    amount(it.Subtotal()),
		}
	}
	return out
}

func mapCartLine(l *domain.CartLine) CartLineResponse {
	return CartLineResponse{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity, AddedAt: stamp(l.AddedAt)}
}

func mapOrder(o *domain.Order) OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   amount(l.UnitPrice),
			Subtotal:    amount(l.Subtotal()),
		}
	}
	return OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     amount(o.TotalAmount),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Lines:           lines,
		CreatedAt:       stamp(o.CreatedAt),
		UpdatedAt:       stamp(o.UpdatedAt),
	}
}

func mapOrders(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = mapOrder(&orders[i])
	}
	return out
}

func mapWallet(w *domain.Wallet) WalletResponse {
	return WalletResponse{UserID: w.UserID, Balance: amount(w.Balance), UpdatedAt: stamp(w.UpdatedAt)}
}

func mapHistory(entries []orderlog.Entry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			From:      string(e.From),
			To:        string(e.To),
			ActorID:   e.ActorID,
			Note:      e.Note,
			TraceID:   e.TraceID,
			CreatedAt: stamp(e.CreatedAt),
		}
	}
	return out
}

func mapReview(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		ProductID:  r.ProductID,
		OrderID:    r.OrderID,
		Rating:     r.Rating,
		Title:      r.Title,
		Content:    r.Content,
		IsVerified: r.IsVerified,
		CreatedAt:  stamp(r.CreatedAt),
		UpdatedAt:  stamp(r.UpdatedAt),
	}
}

func mapReviewPage(p *domain.ReviewPage) ReviewPageResponse {
	out := ReviewPageResponse{
		Reviews:       make([]ReviewResponse, len(p.Reviews)),
		AverageRating: p.AverageRating,
		TotalReviews:  p.Total,
		Distribution:  p.Distribution,
		Page:          p.Page,
		PerPage:       p.PerPage,
		Pages:         p.Pages,
	}
	for i := range p.Reviews {
		out.Reviews[i] = mapReview(&p.Reviews[i])
	}
	return out
}

func mapDashboard(d *domain.Dashboard) DashboardResponse {
	byStatus := make(map[string]int, len(d.OrdersByStatus))
	for s, n := range d.OrdersByStatus {
		byStatus[string(s)] = n
	}
	return DashboardResponse{
		Products:       d.Products,
		Orders:         d.Orders,
		OrdersByStatus: byStatus,
		RecentOrders:   mapOrders(d.RecentOrders),
	}
}

func mapSalesReport(r *domain.SalesReport) SalesReportResponse {
	out := SalesReportResponse{
		From:       r.From.Format(time.DateOnly),
		To:         r.To.Format(time.DateOnly),
		Daily:      make([]DailySalesResponse, len(r.Daily)),
		ByProduct:  make([]ProductSalesResponse, len(r.ByProduct)),
		ByCategory: make([]CategorySalesResponse, len(r.ByCategory)),
		TotalSales: amount(r.TotalSales),
	}
	for i, d := range r.Daily {
		out.Daily[i] = DailySalesResponse{Day: d.Day, Quantity: d.Quantity, Sales: amount(d.Sales)}
	}
	for i, p := range r.ByProduct {
		out.ByProduct[i] = ProductSalesResponse{ProductID: p.ProductID, Name: p.Name, Quantity: p.Quantity, Sales: amount(p.Sales)}
	}
	for i, c := range r.ByCategory {
		out.ByCategory[i] = CategorySalesResponse{CategoryID: c.CategoryID, Name: categoryName(c), Quantity: c.Quantity, Sales: amount(c.Sales)}
	}
	return out
}
