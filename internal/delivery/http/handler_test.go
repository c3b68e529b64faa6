package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/keithyco/shopping-cart-api/internal/cart"
	"github.com/keithyco/shopping-cart-api/internal/domain"
	"github.com/keithyco/shopping-cart-api/internal/store"
	"github.com/shopspring/decimal"
)

type stubCatalog struct {
	productsFn func(ctx context.Context) ([]domain.Product, error)
}

func (s *stubCatalog) Products(ctx context.Context) ([]domain.Product, error) {
	if s.productsFn != nil {
		return s.productsFn(ctx)
	}
	return []domain.Product{
		{ID: "1", Name: "Shoes", Price: decimal.RequireFromString("200")},
		{ID: "2", Name: "Bag", Price: decimal.RequireFromString("50")},
	}, nil
}

func (s *stubCatalog) Product(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

type failStore struct{}

func (failStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	return nil, domain.ErrSnapshotNotFound
}

func (failStore) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	return errors.New("store unavailable")
}

func newTestRouter(st store.SnapshotStore) chi.Router {
	r := chi.NewRouter()
	NewHandler(cart.NewManager(st, nil), &stubCatalog{}).Routes(r)
	return r
}

// do replays the session cookie from previous responses so a sequence of
// requests acts as one session.
func do(t *testing.T, r chi.Router, session *http.Cookie, method, path, body string) (*httptest.ResponseRecorder, *http.Cookie) {
	t.Helper()

	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if session != nil {
		req.AddCookie(session)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	return w, session
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) CartResponse {
	t.Helper()
	var resp CartResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode cart response: %v", err)
	}
	return resp
}

func TestAddItem(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	w, session := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1", "quantity": 2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if session == nil {
		t.Fatal("expected a session cookie to be issued")
	}

	resp := decodeCart(t, w)
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp.Items))
	}
	if resp.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", resp.Items[0].Quantity)
	}
	if resp.TotalFormatted != "400.00" {
		t.Fatalf("expected total 400.00, got %q", resp.TotalFormatted)
	}
}

func TestAddItem_QuantityAsString(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	w, _ := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1", "quantity": "3"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeCart(t, w).Items[0].Quantity; got != 3 {
		t.Fatalf("expected quantity 3, got %d", got)
	}
}

func TestAddItem_MissingQuantityDefaultsToOne(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	w, _ := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeCart(t, w).Items[0].Quantity; got != 1 {
		t.Fatalf("expected quantity 1, got %d", got)
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	w, _ := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "999"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAddItem_InvalidBody(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	w, _ := do(t, r, nil, http.MethodPost, "/api/cart/items", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAddItem_StoreFailure(t *testing.T) {
	r := newTestRouter(failStore{})

	w, _ := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCartPersistsAcrossRequests(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	_, session := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1", "quantity": 2}`)
	w, _ := do(t, r, session, http.MethodGet, "/api/cart", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeCart(t, w)
	if len(resp.Items) != 1 || resp.Items[0].Quantity != 2 {
		t.Fatalf("expected cart to survive across requests, got %+v", resp.Items)
	}
}

func TestSessionsDoNotShareCarts(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1"}`)
	w, _ := do(t, r, nil, http.MethodGet, "/api/cart", "")

	if got := len(decodeCart(t, w).Items); got != 0 {
		t.Fatalf("expected a fresh session to see an empty cart, got %d items", got)
	}
}

func TestUpdateQuantity(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	_, session := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1", "quantity": 2}`)
	w, _ := do(t, r, session, http.MethodPut, "/api/cart/items/1", `{"quantity": 5}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeCart(t, w).Items[0].Quantity; got != 5 {
		t.Fatalf("expected quantity 5, got %d", got)
	}
}

func TestUpdateQuantity_ZeroRemovesItem(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	_, session := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1", "quantity": 2}`)
	w, _ := do(t, r, session, http.MethodPut, "/api/cart/items/1", `{"quantity": 0}`)

	if got := len(decodeCart(t, w).Items); got != 0 {
		t.Fatalf("expected empty cart, got %d items", got)
	}
}

func TestUpdateQuantity_NonNumericRejected(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	_, session := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1", "quantity": 2}`)
	w, _ := do(t, r, session, http.MethodPut, "/api/cart/items/1", `{"quantity": "lots"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRemoveItem(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	_, session := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1"}`)
	w, _ := do(t, r, session, http.MethodDelete, "/api/cart/items/1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := len(decodeCart(t, w).Items); got != 0 {
		t.Fatalf("expected empty cart, got %d items", got)
	}
}

func TestApplyCoupon(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	w, session := do(t, r, nil, http.MethodPost, "/api/cart/coupon", `{"code": " SAVE10 "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp ApplyCouponResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Applied || resp.CouponCode != "save10" {
		t.Fatalf("expected applied save10, got %+v", resp)
	}

	w, _ = do(t, r, session, http.MethodPost, "/api/cart/coupon", `{"code": "invalid"}`)
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Applied || resp.CouponCode != "" {
		t.Fatalf("expected invalid code to clear the coupon, got %+v", resp)
	}
}

func TestClearCart(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	_, session := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1"}`)
	_, session = do(t, r, session, http.MethodPost, "/api/cart/coupon", `{"code": "save10"}`)
	w, _ := do(t, r, session, http.MethodDelete, "/api/cart", "")

	resp := decodeCart(t, w)
	if len(resp.Items) != 0 || resp.CouponCode != "" {
		t.Fatalf("expected cleared cart, got %+v", resp)
	}
	if resp.TotalFormatted != "0.00" {
		t.Fatalf("expected total 0.00, got %q", resp.TotalFormatted)
	}
}

func TestGetCart_DiscountedTotals(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	_, session := do(t, r, nil, http.MethodPost, "/api/cart/items", `{"product_id": "1", "quantity": 1}`)
	_, session = do(t, r, session, http.MethodPost, "/api/cart/coupon", `{"code": "save10"}`)
	w, _ := do(t, r, session, http.MethodGet, "/api/cart", "")

	resp := decodeCart(t, w)
	if resp.CouponCode != "save10" {
		t.Fatalf("expected coupon save10, got %q", resp.CouponCode)
	}
	it := resp.Items[0]
	if it.Subtotal != "200.00" || it.Discount != "20.00" || it.FinalSubtotal != "180.00" {
		t.Fatalf("unexpected line item pricing %+v", it)
	}
	if resp.TotalFormatted != "180.00" {
		t.Fatalf("expected total 180.00, got %q", resp.TotalFormatted)
	}
}

func TestListProducts(t *testing.T) {
	r := newTestRouter(store.NewMemory())

	w, _ := do(t, r, nil, http.MethodGet, "/api/products", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var products []domain.Product
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatalf("failed to decode products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
}

func TestListProducts_CatalogDown(t *testing.T) {
	r := chi.NewRouter()
	catalog := &stubCatalog{
		productsFn: func(ctx context.Context) ([]domain.Product, error) {
			return nil, errors.New("upstream down")
		},
	}
	NewHandler(cart.NewManager(store.NewMemory(), nil), catalog).Routes(r)

	w, _ := do(t, r, nil, http.MethodGet, "/api/products", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
