package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: cart repository is required")
	errCartProductsRequired   = errors.New("cart service: product repository is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due to missing dependencies or backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartNotFound indicates the requested cart or product does not exist.
var ErrCartNotFound = errors.New("cart service: not found")

// ErrCartConflict indicates the cart could not be updated due to concurrent modifications.
var ErrCartConflict = errors.New("cart service: conflict")

// CartServiceDeps wires the repositories backing cart operations.
type CartServiceDeps struct {
	Carts    repositories.CartRepository
	Products repositories.ProductRepository
	Clock    func() time.Time
	Logger   func(context.Context, string, map[string]any)
}

type cartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Products == nil {
		return nil, errCartProductsRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	service := &cartService{
		carts:    deps.Carts,
		products: deps.Products,
		now:      func() time.Time { return deps.Clock().UTC() },
		logger:   logger,
	}
	return service, nil
}

// GetCart loads the session cart, creating an empty cart when absent.
func (s *cartService) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return CartView{}, ErrCartInvalidInput
	}

	cart, err := s.loadOrCreateCart(ctx, sid)
	if err != nil {
		return CartView{}, err
	}
	return s.viewOf(cart), nil
}

// AddItem merges the product into the cart, incrementing quantity for an existing line.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return CartView{}, ErrCartInvalidInput
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return CartView{}, fmt.Errorf("%w: product_id is required", ErrCartInvalidInput)
	}
	quantity := cmd.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return CartView{}, fmt.Errorf("%w: quantity must be greater than zero", ErrCartInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return CartView{}, fmt.Errorf("%w: product %q", ErrCartNotFound, productID)
		}
		return CartView{}, s.translateRepoError(err)
	}

	cart, err := s.loadOrCreateCart(ctx, sid)
	if err != nil {
		return CartView{}, err
	}

	now := s.now()
	if idx := cart.LineIndex(product.ID); idx >= 0 {
		cart.Lines[idx].Quantity += quantity
	} else {
		cart.Lines = append(cart.Lines, domain.CartLine{Product: product, Quantity: quantity})
	}
	cart.UpdatedAt = now

	saved, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}

	s.logger(ctx, "cart.item_added", map[string]any{
		"sessionID": sid,
		"productID": product.ID,
		"quantity":  quantity,
	})

	return s.viewOf(saved), nil
}

// UpdateQuantity sets the absolute quantity of a cart line. A quantity of zero
// removes the line; an unknown product leaves the cart untouched.
func (s *cartService) UpdateQuantity(ctx context.Context, cmd UpdateCartQuantityCommand) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return CartView{}, ErrCartInvalidInput
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return CartView{}, fmt.Errorf("%w: product_id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity < 0 {
		return CartView{}, fmt.Errorf("%w: quantity must not be negative", ErrCartInvalidInput)
	}

	cart, err := s.loadOrCreateCart(ctx, sid)
	if err != nil {
		return CartView{}, err
	}

	idx := cart.LineIndex(productID)
	if idx < 0 {
		return s.viewOf(cart), nil
	}

	if cmd.Quantity == 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Quantity = cmd.Quantity
	}
	cart.UpdatedAt = s.now()

	saved, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}
	return s.viewOf(saved), nil
}

// RemoveItem drops the cart line for the product. Absent lines are a no-op.
func (s *cartService) RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (CartView, error) {
	if s == nil || s.carts == nil {
		return CartView{}, ErrCartUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return CartView{}, ErrCartInvalidInput
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return CartView{}, fmt.Errorf("%w: product_id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadOrCreateCart(ctx, sid)
	if err != nil {
		return CartView{}, err
	}

	idx := cart.LineIndex(productID)
	if idx < 0 {
		return s.viewOf(cart), nil
	}

	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	cart.UpdatedAt = s.now()

	saved, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}
	return s.viewOf(saved), nil
}

// ClearCart removes every line from the session cart.
func (s *cartService) ClearCart(ctx context.Context, sessionID string) error {
	if s == nil || s.carts == nil {
		return ErrCartUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return ErrCartInvalidInput
	}

	if err := s.carts.DeleteCart(ctx, sid); err != nil {
		return s.translateRepoError(err)
	}

	s.logger(ctx, "cart.cleared", map[string]any{"sessionID": sid})
	return nil
}

func (s *cartService) loadOrCreateCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		if !isRepoNotFound(err) {
			return domain.Cart{}, s.translateRepoError(err)
		}
		now := s.now()
		cart = domain.Cart{
			SessionID: sessionID,
			Lines:     []domain.CartLine{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		saved, err := s.carts.UpsertCart(ctx, cart)
		if err != nil {
			return domain.Cart{}, s.translateRepoError(err)
		}
		cart = saved
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	return cart, nil
}

func (s *cartService) viewOf(cart domain.Cart) CartView {
	return CartView{
		Cart:      cart,
		Totals:    domain.CartTotals(cart.Lines),
		ItemCount: domain.ItemCount(cart.Lines),
	}
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCartNotFound
		case repoErr.IsConflict():
			return ErrCartConflict
		case repoErr.IsUnavailable():
			return ErrCartUnavailable
		}
		return ErrCartUnavailable
	}
	return ErrCartUnavailable
}
