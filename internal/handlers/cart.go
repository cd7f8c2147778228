package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/platform/auth"
	"github.com/my-store/api/internal/platform/httpx"
	"github.com/my-store/api/internal/services"
)

// CartHandlers exposes session-scoped cart endpoints.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

const maxCartBodySize = 16 * 1024

// NewCartHandlers constructs handlers requiring a session token before invoking the cart service.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{
		authn: authn,
		carts: carts,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireSession())
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{productId}", h.updateQuantity)
	r.Delete("/items/{productId}", h.removeItem)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	view, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, view.Cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(view)})
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addCartItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product_id is required", http.StatusBadRequest))
		return
	}

	view, err := h.carts.AddItem(ctx, services.AddCartItemCommand{
		SessionID: sessionID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, view.Cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(view)})
}

func (h *CartHandlers) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	quantity, err := parseQuantityRequest(body)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	view, err := h.carts.UpdateQuantity(ctx, services.UpdateCartQuantityCommand{
		SessionID: sessionID,
		ProductID: chi.URLParam(r, "productId"),
		Quantity:  quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, view.Cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(view)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	view, err := h.carts.RemoveItem(ctx, services.RemoveCartItemCommand{
		SessionID: sessionID,
		ProductID: chi.URLParam(r, "productId"),
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	setCartResponseHeaders(w, view.Cart)
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(view)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	if err := h.carts.ClearCart(ctx, sessionID); err != nil {
		writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) requireSession(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	sessionID := sessionIDFromContext(ctx)
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "session required", http.StatusUnauthorized))
		return "", false
	}
	return sessionID, true
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to serve cart", http.StatusInternalServerError))
	}
}

func setCartResponseHeaders(w http.ResponseWriter, cart domain.Cart) {
	w.Header().Set("Cache-Control", "no-store, no-cache, max-age=0, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	if !cart.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", cart.UpdatedAt.UTC().Format(http.TimeFormat))
	}
}

func buildCartPayload(view services.CartView) cartPayload {
	return cartPayload{
		SessionID: strings.TrimSpace(view.Cart.SessionID),
		Items:     buildCartLines(view.Cart.Lines),
		ItemCount: view.ItemCount,
		Totals:    buildTotalsPayload(view.Totals),
		UpdatedAt: formatTime(view.Cart.UpdatedAt),
	}
}

func buildCartLines(lines []domain.CartLine) []cartLinePayload {
	payload := make([]cartLinePayload, 0, len(lines))
	for _, line := range lines {
		payload = append(payload, cartLinePayload{
			Product:   buildProductPayload(line.Product),
			Quantity:  line.Quantity,
			LineTotal: line.Product.Price * int64(line.Quantity),
		})
	}
	return payload
}

func buildTotalsPayload(totals domain.Totals) totalsPayload {
	return totalsPayload{
		Subtotal:     totals.Subtotal,
		Shipping:     totals.Shipping,
		Tax:          totals.Tax,
		Total:        totals.Total,
		DisplayTotal: displayPrice(totals.Total),
	}
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type cartPayload struct {
	SessionID string            `json:"session_id"`
	Items     []cartLinePayload `json:"items"`
	ItemCount int               `json:"item_count"`
	Totals    totalsPayload     `json:"totals"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

type cartLinePayload struct {
	Product   productPayload `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal int64          `json:"line_total"`
}

type totalsPayload struct {
	Subtotal     int64  `json:"subtotal"`
	Shipping     int64  `json:"shipping"`
	Tax          int64  `json:"tax"`
	Total        int64  `json:"total"`
	DisplayTotal string `json:"display_total"`
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func parseQuantityRequest(body []byte) (int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, errors.New("invalid JSON payload")
	}
	value, ok := raw["quantity"]
	if !ok || isJSONNull(value) {
		return 0, errors.New("quantity is required")
	}
	var quantity int
	if err := json.Unmarshal(value, &quantity); err != nil {
		return 0, errors.New("quantity must be an integer")
	}
	return quantity, nil
}
