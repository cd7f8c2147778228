package memory

import (
	"context"
	"strings"
	"sync"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/repositories"
)

// CheckoutRepository keeps per-session checkout flow state in process memory.
type CheckoutRepository struct {
	mu     sync.RWMutex
	states map[string]domain.CheckoutState
}

// NewCheckoutRepository constructs an empty checkout state store.
func NewCheckoutRepository() *CheckoutRepository {
	return &CheckoutRepository{states: make(map[string]domain.CheckoutState)}
}

// GetState returns a copy of the session's checkout state or a not-found error.
func (r *CheckoutRepository) GetState(_ context.Context, sessionID string) (domain.CheckoutState, error) {
	id := strings.TrimSpace(sessionID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[id]
	if !ok {
		return domain.CheckoutState{}, repositories.NewNotFound("checkout state", id)
	}
	return cloneState(state), nil
}

// UpsertState stores the state keyed by its session ID.
func (r *CheckoutRepository) UpsertState(_ context.Context, state domain.CheckoutState) (domain.CheckoutState, error) {
	id := strings.TrimSpace(state.SessionID)
	if id == "" {
		return domain.CheckoutState{}, repositories.NewConflict("checkout repository: session id is required")
	}
	state.SessionID = id
	stored := cloneState(state)

	r.mu.Lock()
	r.states[id] = stored
	r.mu.Unlock()

	return cloneState(stored), nil
}

// DeleteState removes the session's checkout state. Absence is not an error.
func (r *CheckoutRepository) DeleteState(_ context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)

	r.mu.Lock()
	delete(r.states, id)
	r.mu.Unlock()

	return nil
}

func cloneState(state domain.CheckoutState) domain.CheckoutState {
	dup := state
	if state.ShippingAddress != nil {
		addr := *state.ShippingAddress
		dup.ShippingAddress = &addr
	}
	if state.PaymentCard != nil {
		card := *state.PaymentCard
		dup.PaymentCard = &card
	}
	return dup
}
