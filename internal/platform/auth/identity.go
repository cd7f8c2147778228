package auth

import (
	"context"
)

// Identity captures the session principal attached to an authenticated request.
// Guest sessions carry an empty UserID.
type Identity struct {
	SessionID string
	UserID    string
	Email     string
	IsSeller  bool
}

// IsGuest reports whether the session has no signed-in user.
func (i *Identity) IsGuest() bool {
	return i == nil || i.UserID == ""
}

type contextKey string

const identityContextKey contextKey = "github.com/my-store/api/internal/platform/auth/identity"

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
