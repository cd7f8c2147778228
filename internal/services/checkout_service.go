package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
)

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout service: unavailable")
	// ErrCheckoutEmptyCart indicates the cart holds no lines to check out.
	ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")
	// ErrCheckoutStepViolation indicates the requested transition is not allowed from the current step.
	ErrCheckoutStepViolation = errors.New("checkout service: step not allowed")
	// ErrCheckoutFormIncomplete indicates a required form has missing fields.
	ErrCheckoutFormIncomplete = errors.New("checkout service: form incomplete")
)

var (
	errCheckoutCartsRequired = errors.New("checkout service: cart repository is required")
	errCheckoutRepoRequired  = errors.New("checkout service: checkout repository is required")
	errCheckoutClockRequired = errors.New("checkout service: clock is required")
)

// CheckoutServiceDeps wires repositories and infrastructure for the checkout flow.
type CheckoutServiceDeps struct {
	Carts       repositories.CartRepository
	Checkout    repositories.CheckoutRepository
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type checkoutService struct {
	carts    repositories.CartRepository
	checkout repositories.CheckoutRepository
	now      func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewCheckoutService constructs a CheckoutService enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errCheckoutCartsRequired
	}
	if deps.Checkout == nil {
		return nil, errCheckoutRepoRequired
	}
	if deps.Clock == nil {
		return nil, errCheckoutClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	service := &checkoutService{
		carts:    deps.Carts,
		checkout: deps.Checkout,
		now:      func() time.Time { return deps.Clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}
	return service, nil
}

// GetCheckout loads the checkout state for the session, starting a new flow at
// the shipping step when none exists.
func (s *checkoutService) GetCheckout(ctx context.Context, sessionID string) (CheckoutView, error) {
	if s == nil || s.checkout == nil {
		return CheckoutView{}, ErrCheckoutUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	state, err := s.loadOrCreateState(ctx, sid)
	if err != nil {
		return CheckoutView{}, err
	}
	return s.viewOf(ctx, state)
}

// SubmitShipping stores the shipping form and advances to the payment step.
func (s *checkoutService) SubmitShipping(ctx context.Context, cmd SubmitShippingCommand) (CheckoutView, error) {
	if s == nil || s.checkout == nil {
		return CheckoutView{}, ErrCheckoutUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	address := normalizeShippingAddress(cmd.Address)
	if !address.Complete() {
		return CheckoutView{}, fmt.Errorf("%w: all shipping fields are required", ErrCheckoutFormIncomplete)
	}

	state, err := s.loadOrCreateState(ctx, sid)
	if err != nil {
		return CheckoutView{}, err
	}
	if state.Step != domain.StepShipping {
		return CheckoutView{}, fmt.Errorf("%w: shipping can only be submitted from the shipping step", ErrCheckoutStepViolation)
	}

	if empty, err := s.cartIsEmpty(ctx, sid); err != nil {
		return CheckoutView{}, err
	} else if empty {
		return CheckoutView{}, ErrCheckoutEmptyCart
	}

	state.ShippingAddress = &address
	state.Step = domain.StepPayment
	state.UpdatedAt = s.now()

	saved, err := s.checkout.UpsertState(ctx, state)
	if err != nil {
		return CheckoutView{}, s.translateRepoError(err)
	}
	return s.viewOf(ctx, saved)
}

// SubmitPayment stores the payment form and advances to the review step.
func (s *checkoutService) SubmitPayment(ctx context.Context, cmd SubmitPaymentCommand) (CheckoutView, error) {
	if s == nil || s.checkout == nil {
		return CheckoutView{}, ErrCheckoutUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	card := normalizePaymentCard(cmd.Card)
	if !card.Complete() {
		return CheckoutView{}, fmt.Errorf("%w: all payment fields are required", ErrCheckoutFormIncomplete)
	}

	state, err := s.loadOrCreateState(ctx, sid)
	if err != nil {
		return CheckoutView{}, err
	}
	if state.Step != domain.StepPayment {
		return CheckoutView{}, fmt.Errorf("%w: payment can only be submitted from the payment step", ErrCheckoutStepViolation)
	}
	if state.ShippingAddress == nil || !state.ShippingAddress.Complete() {
		return CheckoutView{}, fmt.Errorf("%w: shipping details are missing", ErrCheckoutFormIncomplete)
	}

	state.PaymentCard = &card
	state.Step = domain.StepReview
	state.UpdatedAt = s.now()

	saved, err := s.checkout.UpsertState(ctx, state)
	if err != nil {
		return CheckoutView{}, s.translateRepoError(err)
	}
	return s.viewOf(ctx, saved)
}

// PlaceOrder confirms the reviewed order, clears the cart, and resets the flow.
func (s *checkoutService) PlaceOrder(ctx context.Context, sessionID string) (OrderConfirmation, error) {
	if s == nil || s.checkout == nil {
		return OrderConfirmation{}, ErrCheckoutUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return OrderConfirmation{}, ErrCheckoutInvalidInput
	}

	state, err := s.loadOrCreateState(ctx, sid)
	if err != nil {
		return OrderConfirmation{}, err
	}
	if state.Step != domain.StepReview {
		return OrderConfirmation{}, fmt.Errorf("%w: orders can only be placed from the review step", ErrCheckoutStepViolation)
	}
	if state.ShippingAddress == nil || !state.ShippingAddress.Complete() {
		return OrderConfirmation{}, fmt.Errorf("%w: shipping details are missing", ErrCheckoutFormIncomplete)
	}
	if state.PaymentCard == nil || !state.PaymentCard.Complete() {
		return OrderConfirmation{}, fmt.Errorf("%w: payment details are missing", ErrCheckoutFormIncomplete)
	}

	cart, err := s.carts.GetCart(ctx, sid)
	if err != nil {
		if isRepoNotFound(err) {
			return OrderConfirmation{}, ErrCheckoutEmptyCart
		}
		return OrderConfirmation{}, s.translateRepoError(err)
	}
	if len(cart.Lines) == 0 {
		return OrderConfirmation{}, ErrCheckoutEmptyCart
	}

	now := s.now()
	confirmation := OrderConfirmation{
		OrderNumber:     "MS-" + strings.ToUpper(strings.TrimSpace(s.newID())),
		PlacedAt:        now,
		Lines:           cart.Lines,
		Totals:          domain.CheckoutTotals(cart.Lines),
		ShippingAddress: *state.ShippingAddress,
	}

	if err := s.carts.DeleteCart(ctx, sid); err != nil {
		return OrderConfirmation{}, s.translateRepoError(err)
	}
	if err := s.checkout.DeleteState(ctx, sid); err != nil {
		return OrderConfirmation{}, s.translateRepoError(err)
	}

	s.logger(ctx, "checkout.order_placed", map[string]any{
		"sessionID":   sid,
		"orderNumber": confirmation.OrderNumber,
		"total":       confirmation.Totals.Total,
	})

	return confirmation, nil
}

// Back steps the flow backwards: review to payment, payment to shipping.
func (s *checkoutService) Back(ctx context.Context, sessionID string) (CheckoutView, error) {
	if s == nil || s.checkout == nil {
		return CheckoutView{}, ErrCheckoutUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return CheckoutView{}, ErrCheckoutInvalidInput
	}

	state, err := s.loadOrCreateState(ctx, sid)
	if err != nil {
		return CheckoutView{}, err
	}

	switch state.Step {
	case domain.StepPayment:
		state.Step = domain.StepShipping
	case domain.StepReview:
		state.Step = domain.StepPayment
	default:
		return CheckoutView{}, fmt.Errorf("%w: cannot go back from %q", ErrCheckoutStepViolation, state.Step)
	}
	state.UpdatedAt = s.now()

	saved, err := s.checkout.UpsertState(ctx, state)
	if err != nil {
		return CheckoutView{}, s.translateRepoError(err)
	}
	return s.viewOf(ctx, saved)
}

func (s *checkoutService) loadOrCreateState(ctx context.Context, sessionID string) (domain.CheckoutState, error) {
	state, err := s.checkout.GetState(ctx, sessionID)
	if err != nil {
		if !isRepoNotFound(err) {
			return domain.CheckoutState{}, s.translateRepoError(err)
		}
		state = domain.CheckoutState{
			SessionID: sessionID,
			Step:      domain.StepShipping,
			UpdatedAt: s.now(),
		}
	}
	if state.Step == "" {
		state.Step = domain.StepShipping
	}
	return state, nil
}

func (s *checkoutService) cartIsEmpty(ctx context.Context, sessionID string) (bool, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return true, nil
		}
		return false, s.translateRepoError(err)
	}
	return len(cart.Lines) == 0, nil
}

func (s *checkoutService) viewOf(ctx context.Context, state domain.CheckoutState) (CheckoutView, error) {
	lines := []domain.CartLine{}
	cart, err := s.carts.GetCart(ctx, state.SessionID)
	if err != nil {
		if !isRepoNotFound(err) {
			return CheckoutView{}, s.translateRepoError(err)
		}
	} else {
		lines = cart.Lines
	}

	return CheckoutView{
		State:     state,
		Lines:     lines,
		Totals:    domain.CheckoutTotals(lines),
		ItemCount: domain.ItemCount(lines),
	}, nil
}

func normalizeShippingAddress(address domain.ShippingAddress) domain.ShippingAddress {
	address.FullName = strings.TrimSpace(address.FullName)
	address.Address = strings.TrimSpace(address.Address)
	address.City = strings.TrimSpace(address.City)
	address.State = strings.TrimSpace(address.State)
	address.ZipCode = strings.TrimSpace(address.ZipCode)
	address.Country = strings.TrimSpace(address.Country)
	return address
}

func normalizePaymentCard(card domain.PaymentCard) domain.PaymentCard {
	card.CardholderName = strings.TrimSpace(card.CardholderName)
	card.CardNumber = strings.TrimSpace(card.CardNumber)
	card.ExpiryDate = strings.TrimSpace(card.ExpiryDate)
	card.CVV = strings.TrimSpace(card.CVV)
	return card
}

func (s *checkoutService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCheckoutInvalidInput
		case repoErr.IsUnavailable():
			return ErrCheckoutUnavailable
		}
	}
	return ErrCheckoutUnavailable
}
