package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/keithyco/shopping-cart-api/internal/cart"
	"github.com/keithyco/shopping-cart-api/internal/domain"
)

const sessionCookie = "cart_session"

type AddItemRequest struct {
	ProductID string      `json:"product_id"`
	Quantity  json.Number `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity json.Number `json:"quantity"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type ApplyCouponResponse struct {
	Applied    bool   `json:"applied"`
	CouponCode string `json:"coupon_code,omitempty"`
}

type LineItemResponse struct {
	Product       domain.Product `json:"product"`
	Quantity      int            `json:"quantity"`
	Subtotal      string         `json:"subtotal"`
	Discount      string         `json:"discount"`
	FinalSubtotal string         `json:"final_subtotal"`
}

type CartResponse struct {
	Items          []LineItemResponse `json:"items"`
	CouponCode     string             `json:"coupon_code,omitempty"`
	Total          string             `json:"total"`
	TotalFormatted string             `json:"total_formatted"`
}

// Catalog is the slice of the product source the handler needs.
type Catalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id string) (domain.Product, error)
}

type Handler struct {
	carts   *cart.Manager
	catalog Catalog
}

func NewHandler(carts *cart.Manager, catalog Catalog) *Handler {
	return &Handler{carts: carts, catalog: catalog}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{productID}", h.UpdateQuantity)
			r.Delete("/items/{productID}", h.RemoveItem)
			r.Post("/coupon", h.ApplyCoupon)
		})
	})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c := h.sessionCart(w, r)
	writeJSON(w, http.StatusOK, cartResponse(c))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
		return
	}

	quantity := cart.QuantityOrDefault(req.Quantity, 1)

	c := h.sessionCart(w, r)
	if err := c.AddItem(r.Context(), product, quantity); err != nil {
		http.Error(w, "failed to save cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(c))
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	quantity, ok := cart.ParseQuantity(req.Quantity)
	if !ok {
		http.Error(w, "invalid quantity", http.StatusBadRequest)
		return
	}

	c := h.sessionCart(w, r)
	if err := c.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), quantity); err != nil {
		http.Error(w, "failed to save cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(c))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c := h.sessionCart(w, r)
	if err := c.RemoveItem(r.Context(), chi.URLParam(r, "productID")); err != nil {
		http.Error(w, "failed to save cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(c))
}

func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	c := h.sessionCart(w, r)
	applied, err := c.ApplyCoupon(r.Context(), req.Code)
	if err != nil {
		http.Error(w, "failed to save cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ApplyCouponResponse{
		Applied:    applied,
		CouponCode: c.CouponCode(),
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.sessionCart(w, r)
	if err := c.Clear(r.Context()); err != nil {
		http.Error(w, "failed to save cart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(c))
}

// sessionCart resolves the caller's cart from the session cookie, issuing a
// fresh session id when none is present.
func (h *Handler) sessionCart(w http.ResponseWriter, r *http.Request) *cart.Cart {
	var sessionID string
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		sessionID = cookie.Value
	} else {
		sessionID = uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h.carts.Cart(r.Context(), sessionID)
}

func cartResponse(c *cart.Cart) CartResponse {
	total := c.Totals()
	items := c.Items()

	resp := CartResponse{
		Items:          make([]LineItemResponse, 0, len(items)),
		CouponCode:     c.CouponCode(),
		Total:          total.String(),
		TotalFormatted: total.StringFixed(2),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, LineItemResponse{
			Product:       it.Product,
			Quantity:      it.Quantity,
			Subtotal:      it.Subtotal.StringFixed(2),
			Discount:      it.Discount.StringFixed(2),
			FinalSubtotal: it.FinalSubtotal.StringFixed(2),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
