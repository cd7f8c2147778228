package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/platform/auth"
	"github.com/my-store/api/internal/platform/httpx"
	"github.com/my-store/api/internal/services"
)

const maxCheckoutRequestBody = 8 * 1024

// CheckoutHandlers exposes the staged checkout flow endpoints.
type CheckoutHandlers struct {
	authn    *auth.Authenticator
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers guarded by session authentication.
func NewCheckoutHandlers(authn *auth.Authenticator, checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{
		authn:    authn,
		checkout: checkout,
	}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireSession())
	}
	r.Get("/", h.getCheckout)
	r.Post("/shipping", h.submitShipping)
	r.Post("/payment", h.submitPayment)
	r.Post("/confirm", h.placeOrder)
	r.Post("/back", h.goBack)
}

func (h *CheckoutHandlers) getCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	view, err := h.checkout.GetCheckout(ctx, sessionID)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, checkoutResponse{Checkout: buildCheckoutPayload(view)})
}

func (h *CheckoutHandlers) submitShipping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req shippingAddressPayload
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	view, err := h.checkout.SubmitShipping(ctx, services.SubmitShippingCommand{
		SessionID: sessionID,
		Address:   req.toDomain(),
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, checkoutResponse{Checkout: buildCheckoutPayload(view)})
}

func (h *CheckoutHandlers) submitPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req paymentCardRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	view, err := h.checkout.SubmitPayment(ctx, services.SubmitPaymentCommand{
		SessionID: sessionID,
		Card: domain.PaymentCard{
			CardholderName: req.CardholderName,
			CardNumber:     req.CardNumber,
			ExpiryDate:     req.ExpiryDate,
			CVV:            req.CVV,
		},
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, checkoutResponse{Checkout: buildCheckoutPayload(view)})
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	confirmation, err := h.checkout.PlaceOrder(ctx, sessionID)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	payload := orderConfirmationResponse{
		Step: string(domain.StepConfirmed),
		Order: orderConfirmationPayload{
			OrderNumber:     confirmation.OrderNumber,
			PlacedAt:        formatTime(confirmation.PlacedAt),
			Items:           buildCartLines(confirmation.Lines),
			Totals:          buildTotalsPayload(confirmation.Totals),
			ShippingAddress: buildShippingAddressPayload(confirmation.ShippingAddress),
		},
	}
	writeJSONResponse(w, http.StatusCreated, payload)
}

func (h *CheckoutHandlers) goBack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	view, err := h.checkout.Back(ctx, sessionID)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, checkoutResponse{Checkout: buildCheckoutPayload(view)})
}

func (h *CheckoutHandlers) requireSession(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	sessionID := sessionIDFromContext(ctx)
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "session required", http.StatusUnauthorized))
		return "", false
	}
	return sessionID, true
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCheckoutFormIncomplete):
		httpx.WriteError(ctx, w, httpx.NewError("form_incomplete", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutStepViolation):
		httpx.WriteError(ctx, w, httpx.NewError("step_not_allowed", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to serve checkout", http.StatusInternalServerError))
	}
}

type checkoutResponse struct {
	Checkout checkoutPayload `json:"checkout"`
}

type checkoutPayload struct {
	Step            string                  `json:"step"`
	ShippingAddress *shippingAddressPayload `json:"shipping_address,omitempty"`
	PaymentCard     *paymentCardPayload     `json:"payment_card,omitempty"`
	Items           []cartLinePayload       `json:"items"`
	ItemCount       int                     `json:"item_count"`
	Totals          totalsPayload           `json:"totals"`
	UpdatedAt       string                  `json:"updated_at,omitempty"`
}

type orderConfirmationResponse struct {
	Step  string                   `json:"step"`
	Order orderConfirmationPayload `json:"order"`
}

type orderConfirmationPayload struct {
	OrderNumber     string                 `json:"order_number"`
	PlacedAt        string                 `json:"placed_at"`
	Items           []cartLinePayload      `json:"items"`
	Totals          totalsPayload          `json:"totals"`
	ShippingAddress shippingAddressPayload `json:"shipping_address"`
}

type shippingAddressPayload struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

func (p shippingAddressPayload) toDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName: p.FullName,
		Address:  p.Address,
		City:     p.City,
		State:    p.State,
		ZipCode:  p.ZipCode,
		Country:  p.Country,
	}
}

func buildShippingAddressPayload(address domain.ShippingAddress) shippingAddressPayload {
	return shippingAddressPayload{
		FullName: address.FullName,
		Address:  address.Address,
		City:     address.City,
		State:    address.State,
		ZipCode:  address.ZipCode,
		Country:  address.Country,
	}
}

type paymentCardRequest struct {
	CardholderName string `json:"cardholder_name"`
	CardNumber     string `json:"card_number"`
	ExpiryDate     string `json:"expiry_date"`
	CVV            string `json:"cvv"`
}

// paymentCardPayload echoes only non-sensitive card details back to the client.
type paymentCardPayload struct {
	CardholderName string `json:"cardholder_name"`
	LastFour       string `json:"last_four"`
	ExpiryDate     string `json:"expiry_date"`
}

func buildPaymentCardPayload(card domain.PaymentCard) paymentCardPayload {
	lastFour := card.CardNumber
	if len(lastFour) > 4 {
		lastFour = lastFour[len(lastFour)-4:]
	}
	return paymentCardPayload{
		CardholderName: card.CardholderName,
		LastFour:       lastFour,
		ExpiryDate:     card.ExpiryDate,
	}
}

func buildCheckoutPayload(view services.CheckoutView) checkoutPayload {
	payload := checkoutPayload{
		Step:      string(view.State.Step),
		Items:     buildCartLines(view.Lines),
		ItemCount: view.ItemCount,
		Totals:    buildTotalsPayload(view.Totals),
		UpdatedAt: formatTime(view.State.UpdatedAt),
	}
	if view.State.ShippingAddress != nil {
		address := buildShippingAddressPayload(*view.State.ShippingAddress)
		payload.ShippingAddress = &address
	}
	if view.State.PaymentCard != nil {
		card := buildPaymentCardPayload(*view.State.PaymentCard)
		payload.PaymentCard = &card
	}
	return payload
}
