package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/httpx/middlewares"
	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/sqlstore"
	"github.com/jcmexdev/nutrition-store/internal/store-service/app"
	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

var authCfg = middlewares.AuthConfig{Secret: "test-secret", Issuer: "nutrition-store", Audience: "store-api"}

type apiFixture struct {
	srv  *httptest.Server
	auth *middlewares.Authenticator
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := app.NewService(store, app.NewDispatcher(nil, time.Second), app.NewLowStockMonitor(time.Now(), time.Hour, 5))
	auth := middlewares.NewAuthenticator(authCfg)
	srv := httptest.NewServer(NewRouter(NewHandler(svc), RouterOptions{Auth: auth, DB: store}))
	t.Cleanup(srv.Close)
	return &apiFixture{srv: srv, auth: auth}
}

func (f *apiFixture) token(t *testing.T, id string, isAdmin bool) string {
	t.Helper()
	tok, err := f.auth.Sign(domain.Actor{ID: id, IsAdmin: isAdmin}, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request and decodes a JSON answer into out when non-nil.
func (f *apiFixture) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *apiFixture) createProduct(t *testing.T, adminTok, name, price string, stock int) ProductResponse {
	t.Helper()
	var p ProductResponse
	code := f.do(t, http.MethodPost, "/v1/admin/products", adminTok,
		CreateProductRequest{Name: name, Price: price, Stock: stock}, &p)
	require.Equal(t, http.StatusCreated, code)
	return p
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)
	adminTok := api.token(t, "admin", true)
	aliceTok := api.token(t, "alice", false)

	whey := api.createProduct(t, adminTok, "Whey Protein", "89.90", 100)
	creatine := api.createProduct(t, adminTok, "Creatine", "129.00", 50)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/v1/cart/lines", aliceTok,
		CartLineRequest{ProductID: whey.ID, Quantity: 2}, nil))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/v1/cart/lines", aliceTok,
		CartLineRequest{ProductID: creatine.ID, Quantity: 1}, nil))

	var cart CartResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/cart", aliceTok, nil, &cart))
	assert.Equal(t, "308.80", cart.Total)
	assert.Len(t, cart.Items, 2)

	var order OrderResponse
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/cart/checkout", aliceTok,
		CheckoutRequest{ShippingAddress: "1 Gym St"}, &order))
	assert.Equal(t, "308.80", order.TotalAmount)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "wallet", order.PaymentMethod)

	var paid PaymentResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/pay", aliceTok, nil, &paid))
	assert.Equal(t, "paid", paid.Order.Status)
	assert.Equal(t, "691.20", paid.Wallet.Balance)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/pay", aliceTok, nil, &errResp))
	assert.Equal(t, "already_paid", errResp.Error)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/admin/orders/"+order.ID+"/ship", adminTok, nil, nil))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/admin/orders/"+order.ID+"/deliver", adminTok, nil, &order))
	assert.Equal(t, "delivered", order.Status)

	var review ReviewResponse
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/products/"+whey.ID+"/reviews", aliceTok,
		ReviewRequest{Rating: 5, Title: "Great"}, &review))
	assert.Equal(t, order.ID, review.OrderID)
	assert.True(t, review.IsVerified)

	errResp = ErrorResponse{}
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/v1/reviews", aliceTok,
		ReviewRequest{OrderID: order.ID, ProductID: whey.ID, Rating: 4}, &errResp))
	assert.Equal(t, "duplicate_review", errResp.Error)

	var page ReviewPageResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/products/"+whey.ID+"/reviews", "", nil, &page))
	assert.Equal(t, 1, page.TotalReviews)
	assert.Equal(t, 5.0, page.AverageRating)
	assert.Equal(t, 1, page.Distribution[5])

	var history []HistoryEntryResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/orders/"+order.ID+"/history", aliceTok, nil, &history))
	require.Len(t, history, 4)
	assert.Equal(t, "delivered", history[3].To)
}

func TestErrorMapping(t *testing.T) {
	api := newAPI(t)
	adminTok := api.token(t, "admin", true)
	aliceTok := api.token(t, "alice", false)
	bobTok := api.token(t, "bob", false)
	p := api.createProduct(t, adminTok, "Creatine", "129.00", 1)

	var e ErrorResponse
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/v1/cart/checkout", aliceTok, nil, &e))
	assert.Equal(t, "empty_cart", e.Error)

	e = ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPut, "/v1/cart/lines", aliceTok,
		CartLineRequest{ProductID: p.ID, Quantity: 0}, &e))
	assert.Equal(t, "invalid_quantity", e.Error)

	e = ErrorResponse{}
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/v1/orders/missing", aliceTok, nil, &e))
	assert.Equal(t, "not_found", e.Error)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/v1/cart/lines", aliceTok,
		CartLineRequest{ProductID: p.ID, Quantity: 1}, nil))
	var order OrderResponse
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/cart/checkout", aliceTok, nil, &order))

	e = ErrorResponse{}
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/v1/orders/"+order.ID, bobTok, nil, &e))
	assert.Equal(t, "forbidden", e.Error)

	e = ErrorResponse{}
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/transitions", aliceTok,
		TransitionRequest{Status: "delivered"}, &e))
	assert.Equal(t, "illegal_transition", e.Error)

	e = ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/transitions", aliceTok,
		TransitionRequest{Status: "teleported"}, &e))
	assert.Equal(t, "invalid_argument", e.Error)

	e = ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/v1/orders?status=lost", aliceTok, nil, &e))

	e = ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/v1/reviews", aliceTok,
		ReviewRequest{OrderID: order.ID, ProductID: p.ID, Rating: 9}, &e))
	assert.Equal(t, "invalid_rating", e.Error)
}

func TestInsufficientBalanceIsPaymentRequired(t *testing.T) {
	api := newAPI(t)
	adminTok := api.token(t, "admin", true)
	aliceTok := api.token(t, "alice", false)
	p := api.createProduct(t, adminTok, "Mass Gainer", "600.00", 5)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/v1/cart/lines", aliceTok,
		CartLineRequest{ProductID: p.ID, Quantity: 2}, nil))
	var order OrderResponse
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/cart/checkout", aliceTok, nil, &order))

	var e ErrorResponse
	assert.Equal(t, http.StatusPaymentRequired, api.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/pay", aliceTok, nil, &e))
	assert.Equal(t, "insufficient_balance", e.Error)

	var w WalletResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/wallet", aliceTok, nil, &w))
	assert.Equal(t, "1000.00", w.Balance)
}

func TestAuthentication(t *testing.T) {
	api := newAPI(t)
	aliceTok := api.token(t, "alice", false)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/v1/cart", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/v1/cart", "not-a-jwt", nil, nil))

	other := middlewares.NewAuthenticator(middlewares.AuthConfig{Secret: "other", Issuer: authCfg.Issuer, Audience: authCfg.Audience})
	forged, err := other.Sign(domain.Actor{ID: "alice"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/v1/cart", forged, nil, nil))

	expired, err := api.auth.Sign(domain.Actor{ID: "alice"}, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/v1/cart", expired, nil, nil))

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/v1/admin/dashboard", aliceTok, nil, nil))
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/products", "", nil, nil))
}

func TestAdminCatalogAndReports(t *testing.T) {
	api := newAPI(t)
	adminTok := api.token(t, "admin", true)
	aliceTok := api.token(t, "alice", false)

	p := api.createProduct(t, adminTok, "Creatine", "129.00", 3)

	inactive := false
	var updated ProductResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPatch, "/v1/admin/products/"+p.ID, adminTok,
		UpdateProductRequest{IsActive: &inactive}, &updated))
	assert.False(t, updated.IsActive)

	var public ProductPageResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/products", "", nil, &public))
	assert.Empty(t, public.Products)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/v1/products/"+p.ID, aliceTok, nil, nil))

	var all ProductPageResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/admin/products", adminTok, nil, &all))
	assert.Len(t, all.Products, 1)

	var restocked ProductResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/admin/products/"+p.ID+"/restock", adminTok,
		RestockRequest{Quantity: 7}, &restocked))
	assert.Equal(t, 10, restocked.StockQuantity)

	var dash DashboardResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/admin/dashboard", adminTok, nil, &dash))
	assert.Equal(t, 1, dash.Products)

	var report SalesReportResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet,
		"/v1/admin/reports/sales?from=2026-01-01&to=2026-01-31", adminTok, nil, &report))
	assert.Equal(t, "2026-01-01", report.From)
	assert.Equal(t, "2026-02-01", report.To)
	assert.Equal(t, "0.00", report.TotalSales)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet,
		"/v1/admin/reports/sales?from=yesterday", adminTok, nil, nil))
}

func TestCatalogBrowsingOverHTTP(t *testing.T) {
	api := newAPI(t)
	adminTok := api.token(t, "admin", true)
	aliceTok := api.token(t, "alice", false)

	var protein CategoryResponse
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/admin/categories", adminTok,
		CategoryRequest{Name: "Protein"}, &protein))
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/v1/admin/categories", aliceTok,
		CategoryRequest{Name: "Snacks"}, nil))
	var errResp ErrorResponse
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/v1/admin/categories", adminTok,
		CategoryRequest{Name: "Protein"}, &errResp))
	assert.Equal(t, "duplicate_category", errResp.Error)

	var categories []CategoryResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/categories", "", nil, &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, protein.ID, categories[0].ID)

	var whey ProductResponse
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/admin/products", adminTok,
		CreateProductRequest{Name: "Whey Protein", Price: "89.90", Stock: 10, CategoryID: protein.ID}, &whey))
	assert.Equal(t, protein.ID, whey.CategoryID)
	api.createProduct(t, adminTok, "Creatine", "129.00", 10)
	api.createProduct(t, adminTok, "Casein", "79.00", 10)

	var page ProductPageResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/products?category_id="+protein.ID, "", nil, &page))
	require.Len(t, page.Products, 1)
	assert.Equal(t, whey.ID, page.Products[0].ID)

	page = ProductPageResponse{}
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/products?category_id=all&search=c&per_page=1&page=2", "", nil, &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Creatine", page.Products[0].Name)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/v1/products?page=-1", "", nil, nil))

	var ranking []RankingEntryResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/products/ranking", "", nil, &ranking))
	require.Len(t, ranking, 3)
	assert.Equal(t, 1, ranking[0].Rank)
	assert.Zero(t, ranking[0].UnitsSold)

	var reviews []ReviewResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/v1/admin/reviews", adminTok, nil, &reviews))
	assert.Empty(t, reviews)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/v1/admin/reviews", aliceTok, nil, nil))
}

func TestCustomerCannotShip(t *testing.T) {
	api := newAPI(t)
	adminTok := api.token(t, "admin", true)
	aliceTok := api.token(t, "alice", false)

	whey := api.createProduct(t, adminTok, "Whey Protein", "89.90", 10)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/v1/cart/lines", aliceTok,
		CartLineRequest{ProductID: whey.ID, Quantity: 1}, nil))
	var order OrderResponse
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/v1/cart/checkout", aliceTok, CheckoutRequest{}, &order))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/pay", aliceTok, nil, nil))

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/transitions", aliceTok,
		TransitionRequest{Status: "shipped"}, nil))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/admin/orders/"+order.ID+"/ship", adminTok, nil, nil))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/transitions", aliceTok,
		TransitionRequest{Status: "delivered"}, &order))
	assert.Equal(t, "delivered", order.Status)
}

func TestSalesReportXLSX(t *testing.T) {
	api := newAPI(t)
	adminTok := api.token(t, "admin", true)

	req, err := http.NewRequest(http.MethodGet, api.srv.URL+"/v1/admin/reports/sales?format=xlsx", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	file, err := xlsx.OpenBinary(body)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 3)
	assert.Equal(t, "Daily", file.Sheets[0].Name)
	assert.Equal(t, "Products", file.Sheets[1].Name)
	assert.Equal(t, "Categories", file.Sheets[2].Name)
}

func TestHealthzAndRequestID(t *testing.T) {
	api := newAPI(t)

	resp, err := http.Get(api.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	metrics, err := http.Get(api.srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, _ := io.ReadAll(metrics.Body)
	assert.Contains(t, string(body), "http_requests_total")
}
