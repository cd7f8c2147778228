package memory

import (
	"context"
	"strings"
	"sync"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
)

// CartRepository keeps one cart per session in process memory.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartRepository constructs an empty cart store.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

// GetCart returns a copy of the session's cart or a not-found error.
func (r *CartRepository) GetCart(_ context.Context, sessionID string) (domain.Cart, error) {
	id := strings.TrimSpace(sessionID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[id]
	if !ok {
		return domain.Cart{}, repositories.NewNotFound("cart", id)
	}
	return cloneCart(cart), nil
}

// UpsertCart stores the cart keyed by its session ID.
func (r *CartRepository) UpsertCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	id := strings.TrimSpace(cart.SessionID)
	if id == "" {
		return domain.Cart{}, repositories.NewConflict("cart repository: session id is required")
	}
	cart.SessionID = id
	stored := cloneCart(cart)

	r.mu.Lock()
	r.carts[id] = stored
	r.mu.Unlock()

	return cloneCart(stored), nil
}

// DeleteCart removes the session's cart. Deleting an absent cart is not an error.
func (r *CartRepository) DeleteCart(_ context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)

	r.mu.Lock()
	delete(r.carts, id)
	r.mu.Unlock()

	return nil
}

func cloneCart(cart domain.Cart) domain.Cart {
	dup := cart
	dup.Lines = cloneLines(cart.Lines)
	return dup
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if len(lines) == 0 {
		return []domain.CartLine{}
	}
	dup := make([]domain.CartLine, len(lines))
	copy(dup, lines)
	return dup
}
