package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/my-store/api/internal/domain"
	"github.com/my-store/api/internal/platform/auth"
	"github.com/my-store/api/internal/platform/httpx"
	"github.com/my-store/api/internal/services"
)

const maxAuthBodySize = 16 * 1024

// AuthHandlers exposes session bootstrap and sign-in endpoints.
type AuthHandlers struct {
	authn    *auth.Authenticator
	tokens   *auth.TokenManager
	identity services.IdentityService
	limiter  rateLimiter
}

// AuthOption customises the auth handlers.
type AuthOption func(*AuthHandlers)

// WithAuthRateLimit throttles sign-in attempts per session within the window.
func WithAuthRateLimit(limit int, window time.Duration) AuthOption {
	return func(h *AuthHandlers) {
		h.limiter = newSimpleRateLimiter(limit, window, nil)
	}
}

// NewAuthHandlers constructs handlers issuing session tokens and driving sign-in state.
func NewAuthHandlers(authn *auth.Authenticator, tokens *auth.TokenManager, identity services.IdentityService, opts ...AuthOption) *AuthHandlers {
	h := &AuthHandlers{
		authn:    authn,
		tokens:   tokens,
		identity: identity,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /auth endpoints onto the provided router. Session creation
// is open; everything else requires an existing session token.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/session", h.createSession)
	r.Group(func(pr chi.Router) {
		if h.authn != nil {
			pr.Use(h.authn.RequireSession())
		}
		pr.Post("/login", h.login)
		pr.Post("/register", h.register)
		pr.Post("/logout", h.logout)
	})
}

func (h *AuthHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.identity == nil || h.tokens == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service is unavailable", http.StatusServiceUnavailable))
		return
	}

	session, err := h.identity.CreateGuestSession(ctx)
	if err != nil {
		writeIdentityError(ctx, w, err)
		return
	}

	token, err := h.tokens.Issue(session.ID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_error", "failed to issue session token", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusCreated, sessionTokenResponse{
		Token:   token,
		Session: buildSessionPayload(session),
	})
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}
	if !h.allow(sessionID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many sign-in attempts; retry later", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxAuthBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	session, err := h.identity.Login(ctx, services.LoginCommand{
		SessionID: sessionID,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeIdentityError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session)})
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}
	if !h.allow(sessionID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many sign-in attempts; retry later", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxAuthBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req registerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	session, err := h.identity.Register(ctx, services.RegisterCommand{
		SessionID:       sessionID,
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		IsSeller:        req.IsSeller,
		BusinessName:    req.BusinessName,
		BusinessAddress: req.BusinessAddress,
	})
	if err != nil {
		writeIdentityError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, sessionResponse{Session: buildSessionPayload(session)})
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	session, err := h.identity.Logout(ctx, sessionID)
	if err != nil {
		writeIdentityError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session)})
}

func (h *AuthHandlers) requireSession(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.identity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	sessionID := sessionIDFromContext(ctx)
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "session required", http.StatusUnauthorized))
		return "", false
	}
	return sessionID, true
}

func (h *AuthHandlers) allow(key string) bool {
	if h.limiter == nil {
		return true
	}
	return h.limiter.Allow(key)
}

func writeIdentityError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrIdentityBadCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "email and password are required", http.StatusUnauthorized))
	case errors.Is(err, services.ErrIdentityInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrIdentitySessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "session not found", http.StatusUnauthorized))
	case errors.Is(err, services.ErrIdentityUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("auth_error", "failed to serve request", http.StatusInternalServerError))
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	IsSeller        bool   `json:"is_seller"`
	BusinessName    string `json:"business_name"`
	BusinessAddress string `json:"business_address"`
}

type sessionTokenResponse struct {
	Token   string         `json:"token"`
	Session sessionPayload `json:"session"`
}

type sessionResponse struct {
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	ID              string       `json:"id"`
	User            *userPayload `json:"user"`
	LikedProductIDs []string     `json:"liked_product_ids"`
	CreatedAt       string       `json:"created_at,omitempty"`
	UpdatedAt       string       `json:"updated_at,omitempty"`
}

type userPayload struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Rating   float64 `json:"rating"`
	Reviews  int     `json:"reviews"`
	IsSeller bool    `json:"is_seller"`
	JoinDate string  `json:"join_date,omitempty"`
	Location string  `json:"location,omitempty"`
}

func buildSessionPayload(session domain.Session) sessionPayload {
	liked := session.LikedProductIDs
	if liked == nil {
		liked = []string{}
	}
	payload := sessionPayload{
		ID:              session.ID,
		LikedProductIDs: liked,
		CreatedAt:       formatTime(session.CreatedAt),
		UpdatedAt:       formatTime(session.UpdatedAt),
	}
	if session.User != nil {
		user := buildUserPayload(*session.User)
		payload.User = &user
	}
	return payload
}

func buildUserPayload(user domain.UserProfile) userPayload {
	return userPayload{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Rating:   user.Rating,
		Reviews:  user.Reviews,
		IsSeller: user.IsSeller,
		JoinDate: formatDate(user.JoinDate),
		Location: user.Location,
	}
}
