package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories/memory"
	"github.com/my-store/api/internal/services"
)

const (
	shippingFormJSON = `{"full_name":"Dana Smith","address":"123 Main St","city":"New York","state":"NY","zip_code":"10001","country":"US"}`
	paymentFormJSON  = `{"cardholder_name":"Dana Smith","card_number":"4242424242424242","expiry_date":"12/27","cvv":"123"}`
)

func newCheckoutRouter(t *testing.T) (chi.Router, *memory.CartRepository) {
	t.Helper()

	carts := memory.NewCartRepository()
	service, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:       carts,
		Checkout:    memory.NewCheckoutRepository(),
		Clock:       handlerTestClock,
		IDGenerator: func() string { return "01ARZ3NDEKTSV4RRFFQ69G5FAV" },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handlers := NewCheckoutHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/checkout", handlers.Routes)
	return router, carts
}

func seedCheckoutCart(t *testing.T, carts *memory.CartRepository, sessionID string) {
	t.Helper()
	_, err := carts.UpsertCart(context.Background(), domain.Cart{
		SessionID: sessionID,
		Lines: []domain.CartLine{
			{Product: domain.Product{ID: "prod-001", Price: 1000, Shipping: 200}, Quantity: 1},
			{Product: domain.Product{ID: "prod-002", Price: 2000, Shipping: 300}, Quantity: 1},
		},
		CreatedAt: handlerTestNow,
		UpdatedAt: handlerTestNow,
	})
	if err != nil {
		t.Fatalf("failed to seed cart: %v", err)
	}
}

func decodeCheckout(t *testing.T, rr *httptest.ResponseRecorder) checkoutPayload {
	t.Helper()
	var body checkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body.Checkout
}

func TestCheckoutGetStartsAtShipping(t *testing.T) {
	router, _ := newCheckoutRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodGet, "/checkout/", nil, "sess-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	checkout := decodeCheckout(t, rr)
	if checkout.Step != "shipping" {
		t.Fatalf("expected shipping step, got %q", checkout.Step)
	}
}

func TestCheckoutFullFlow(t *testing.T) {
	router, carts := newCheckoutRouter(t)
	seedCheckoutCart(t, carts, "sess-1")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/shipping", strings.NewReader(shippingFormJSON), "sess-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if step := decodeCheckout(t, rr).Step; step != "payment" {
		t.Fatalf("expected payment step, got %q", step)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/payment", strings.NewReader(paymentFormJSON), "sess-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	checkout := decodeCheckout(t, rr)
	if checkout.Step != "review" {
		t.Fatalf("expected review step, got %q", checkout.Step)
	}
	if checkout.Totals.Subtotal != 3000 || checkout.Totals.Shipping != 500 || checkout.Totals.Tax != 240 || checkout.Totals.Total != 3740 {
		t.Fatalf("unexpected totals %#v", checkout.Totals)
	}
	if checkout.PaymentCard == nil || checkout.PaymentCard.LastFour != "4242" {
		t.Fatalf("expected masked card in review payload, got %#v", checkout.PaymentCard)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/confirm", nil, "sess-1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var confirmed orderConfirmationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &confirmed); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if confirmed.Step != "confirmed" {
		t.Fatalf("expected confirmed step, got %q", confirmed.Step)
	}
	if !strings.HasPrefix(confirmed.Order.OrderNumber, "MS-") {
		t.Fatalf("unexpected order number %q", confirmed.Order.OrderNumber)
	}
	if confirmed.Order.Totals.Total != 3740 {
		t.Fatalf("expected total 3740, got %d", confirmed.Order.Totals.Total)
	}
	if len(confirmed.Order.Items) != 2 {
		t.Fatalf("expected order to snapshot 2 lines, got %d", len(confirmed.Order.Items))
	}

	// Cart is cleared and the flow resets to shipping.
	if _, err := carts.GetCart(context.Background(), "sess-1"); err == nil {
		t.Fatal("expected cart cleared after order placement")
	}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodGet, "/checkout/", nil, "sess-1"))
	if step := decodeCheckout(t, rr).Step; step != "shipping" {
		t.Fatalf("expected reset to shipping, got %q", step)
	}
}

func TestCheckoutShippingRejectsEmptyCart(t *testing.T) {
	router, _ := newCheckoutRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/shipping", strings.NewReader(shippingFormJSON), "sess-1"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "cart_empty" {
		t.Fatalf("expected cart_empty error, got %v", body["error"])
	}
}

func TestCheckoutShippingRejectsIncompleteForm(t *testing.T) {
	router, carts := newCheckoutRouter(t)
	seedCheckoutCart(t, carts, "sess-1")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/shipping", strings.NewReader(`{"full_name":"Dana Smith"}`), "sess-1"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "form_incomplete" {
		t.Fatalf("expected form_incomplete error, got %v", body["error"])
	}
}

func TestCheckoutConfirmRequiresReviewStep(t *testing.T) {
	router, carts := newCheckoutRouter(t)
	seedCheckoutCart(t, carts, "sess-1")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/confirm", nil, "sess-1"))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestCheckoutBack(t *testing.T) {
	router, carts := newCheckoutRouter(t)
	seedCheckoutCart(t, carts, "sess-1")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/shipping", strings.NewReader(shippingFormJSON), "sess-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/back", nil, "sess-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	checkout := decodeCheckout(t, rr)
	if checkout.Step != "shipping" {
		t.Fatalf("expected shipping step after back, got %q", checkout.Step)
	}
	if checkout.ShippingAddress == nil || checkout.ShippingAddress.FullName != "Dana Smith" {
		t.Fatalf("expected shipping form preserved, got %#v", checkout.ShippingAddress)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, newSessionRequest(http.MethodPost, "/checkout/back", nil, "sess-1"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409 from shipping step, got %d", rr.Code)
	}
}
