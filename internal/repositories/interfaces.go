package repositories

import (
	"context"

	domain "github.com/my-store/api/internal/domain"
)

// RepositoryError wraps storage failures with the categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductRepository exposes the read-only seeded catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, productID string) (domain.Product, error)
}

// CartRepository owns per-session cart persistence.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (domain.Cart, error)
	UpsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	DeleteCart(ctx context.Context, sessionID string) error
}

// CheckoutRepository owns per-session checkout flow state.
type CheckoutRepository interface {
	GetState(ctx context.Context, sessionID string) (domain.CheckoutState, error)
	UpsertState(ctx context.Context, state domain.CheckoutState) (domain.CheckoutState, error)
	DeleteState(ctx context.Context, sessionID string) error
}

// SessionRepository stores visitor sessions, both guest and logged in.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	UpsertSession(ctx context.Context, session domain.Session) (domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
