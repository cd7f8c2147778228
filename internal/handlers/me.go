package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/my-store/api/internal/platform/auth"
	"github.com/my-store/api/internal/platform/httpx"
	"github.com/my-store/api/internal/services"
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is required")
)

// MeHandlers exposes the current-session profile and liked products endpoints.
type MeHandlers struct {
	authn    *auth.Authenticator
	identity services.IdentityService
}

// NewMeHandlers constructs handlers requiring a session token before invoking the identity service.
func NewMeHandlers(authn *auth.Authenticator, identity services.IdentityService) *MeHandlers {
	return &MeHandlers{
		authn:    authn,
		identity: identity,
	}
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireSession())
	}
	r.Get("/", h.getProfile)
	r.Get("/liked-products", h.listLikedProducts)
	r.Post("/liked-products/{productId}/toggle", h.toggleLikedProduct)
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	session, err := h.identity.CurrentUser(ctx, sessionID)
	if err != nil {
		writeIdentityError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session)})
}

func (h *MeHandlers) listLikedProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	products, err := h.identity.ListLikedProducts(ctx, sessionID)
	if err != nil {
		writeIdentityError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, likedProductsResponse{Products: buildProductPayloads(products)})
}

func (h *MeHandlers) toggleLikedProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(ctx, w)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	session, err := h.identity.ToggleLikedProduct(ctx, services.ToggleLikedProductCommand{
		SessionID: sessionID,
		ProductID: productID,
	})
	if err != nil {
		writeIdentityError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toggleLikedResponse{
		Liked:   session.Liked(productID),
		Session: buildSessionPayload(session),
	})
}

func (h *MeHandlers) requireSession(ctx context.Context, w http.ResponseWriter) (string, bool) {
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

type likedProductsResponse struct {
	Products []productPayload `json:"products"`
}

type toggleLikedResponse struct {
	Liked   bool           `json:"liked"`
	Session sessionPayload `json:"session"`
}

// sessionIDFromContext resolves the authenticated session identifier, or empty
// when the request carries no identity.
func sessionIDFromContext(ctx context.Context) string {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSpace(identity.SessionID)
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxAuthBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func isJSONNull(value json.RawMessage) bool {
	return strings.EqualFold(strings.TrimSpace(string(value)), "null")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
