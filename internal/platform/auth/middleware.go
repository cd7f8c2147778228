package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const defaultLoadTimeout = 5 * time.Second

// SessionLoader resolves a session identifier into the request identity.
type SessionLoader func(ctx context.Context, sessionID string) (*Identity, error)

// Authenticator verifies bearer session tokens and attaches the identity to
// the request context.
type Authenticator struct {
	tokens *TokenManager
	loader SessionLoader

	timeout time.Duration
}

// AuthenticatorOption customises Authenticator behaviour.
type AuthenticatorOption func(*Authenticator)

// WithLoadTimeout bounds the time spent resolving the session record.
func WithLoadTimeout(d time.Duration) AuthenticatorOption {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAuthenticator constructs an Authenticator for middleware composition.
func NewAuthenticator(tokens *TokenManager, loader SessionLoader, opts ...AuthenticatorOption) (*Authenticator, error) {
	if tokens == nil {
		return nil, errors.New("auth: token manager is required")
	}
	if loader == nil {
		return nil, errors.New("auth: session loader is required")
	}

	a := &Authenticator{
		tokens:  tokens,
		loader:  loader,
		timeout: defaultLoadTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a, nil
}

// RequireSession enforces a valid bearer session token on the request.
func (a *Authenticator) RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization header missing or invalid")
				return
			}
			if a == nil || a.tokens == nil {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization service unavailable")
				return
			}

			sessionID, err := a.tokens.Verify(tokenStr)
			if err != nil {
				respondVerificationError(w, err)
				return
			}

			ctx, cancel := a.contextWithTimeout(r.Context())
			if cancel != nil {
				defer cancel()
			}

			identity, err := a.loader(ctx, sessionID)
			if err != nil || identity == nil {
				respondAuthError(w, http.StatusUnauthorized, "session_not_found", "session does not exist or has expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireUser enforces a session with a signed-in user.
func (a *Authenticator) RequireUser() func(http.Handler) http.Handler {
	requireSession := a.RequireSession()
	return func(next http.Handler) http.Handler {
		return requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || identity.IsGuest() {
				respondAuthError(w, http.StatusUnauthorized, "sign_in_required", "a signed-in user is required for this operation")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func (a *Authenticator) contextWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a == nil || a.timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, a.timeout)
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}

	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}

func respondAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   code,
		"message": message,
		"status":  status,
	})
}

func respondVerificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired):
		respondAuthError(w, http.StatusUnauthorized, "token_expired", "session token expired")
	default:
		respondAuthError(w, http.StatusUnauthorized, "invalid_token", "session token invalid")
	}
}
