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

// Demo profile values applied to every successful sign-in. The storefront has
// no real account backend; any non-empty credentials are accepted.
const (
	demoRating   = 4.8
	demoReviews  = 234
	demoLocation = "New York, NY"
)

var demoJoinDate = time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)

var (
	// ErrIdentityInvalidInput indicates the caller supplied invalid input.
	ErrIdentityInvalidInput = errors.New("identity service: invalid input")
	// ErrIdentityUnavailable indicates the session backend cannot serve the request.
	ErrIdentityUnavailable = errors.New("identity service: unavailable")
	// ErrIdentitySessionNotFound indicates the session does not exist.
	ErrIdentitySessionNotFound = errors.New("identity service: session not found")
	// ErrIdentityBadCredentials indicates the sign-in form was rejected.
	ErrIdentityBadCredentials = errors.New("identity service: invalid credentials")
)

var (
	errIdentitySessionsRequired = errors.New("identity service: session repository is required")
	errIdentityProductsRequired = errors.New("identity service: product repository is required")
	errIdentityClockRequired    = errors.New("identity service: clock is required")
)

// IdentityServiceDeps wires the repositories backing session and profile state.
type IdentityServiceDeps struct {
	Sessions    repositories.SessionRepository
	Products    repositories.ProductRepository
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type identityService struct {
	sessions repositories.SessionRepository
	products repositories.ProductRepository
	now      func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewIdentityService constructs an IdentityService enforcing dependency validation.
func NewIdentityService(deps IdentityServiceDeps) (IdentityService, error) {
	if deps.Sessions == nil {
		return nil, errIdentitySessionsRequired
	}
	if deps.Products == nil {
		return nil, errIdentityProductsRequired
	}
	if deps.Clock == nil {
		return nil, errIdentityClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	service := &identityService{
		sessions: deps.Sessions,
		products: deps.Products,
		now:      func() time.Time { return deps.Clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}
	return service, nil
}

// CreateGuestSession starts a fresh anonymous session.
func (s *identityService) CreateGuestSession(ctx context.Context) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, ErrIdentityUnavailable
	}

	now := s.now()
	session := domain.Session{
		ID:        "sess-" + strings.ToLower(strings.TrimSpace(s.newID())),
		CreatedAt: now,
		UpdatedAt: now,
	}

	saved, err := s.sessions.UpsertSession(ctx, session)
	if err != nil {
		return Session{}, s.translateRepoError(err)
	}

	s.logger(ctx, "identity.session_created", map[string]any{"sessionID": saved.ID})
	return saved, nil
}

// CurrentUser returns the session including the signed-in profile when present.
func (s *identityService) CurrentUser(ctx context.Context, sessionID string) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, ErrIdentityUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return Session{}, ErrIdentityInvalidInput
	}
	return s.loadSession(ctx, sid)
}

// Login signs the session in. Any non-empty email and password pair is
// accepted; the resulting profile is fabricated from the email address.
func (s *identityService) Login(ctx context.Context, cmd LoginCommand) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, ErrIdentityUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return Session{}, ErrIdentityInvalidInput
	}

	email := strings.TrimSpace(cmd.Email)
	if email == "" || strings.TrimSpace(cmd.Password) == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", ErrIdentityBadCredentials)
	}

	session, err := s.loadSession(ctx, sid)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	session.User = &domain.UserProfile{
		ID:       "user-" + strings.ToLower(strings.TrimSpace(s.newID())),
		Name:     emailLocalPart(email),
		Email:    email,
		Rating:   demoRating,
		Reviews:  demoReviews,
		IsSeller: false,
		JoinDate: demoJoinDate,
		Location: demoLocation,
	}
	session.UpdatedAt = now

	saved, err := s.sessions.UpsertSession(ctx, session)
	if err != nil {
		return Session{}, s.translateRepoError(err)
	}

	s.logger(ctx, "identity.login", map[string]any{"sessionID": sid})
	return saved, nil
}

// Register creates a new account and signs the session in. Seller accounts
// must provide business details; everything else always succeeds.
func (s *identityService) Register(ctx context.Context, cmd RegisterCommand) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, ErrIdentityUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return Session{}, ErrIdentityInvalidInput
	}

	name := strings.TrimSpace(cmd.Name)
	email := strings.TrimSpace(cmd.Email)
	if name == "" || email == "" || strings.TrimSpace(cmd.Password) == "" {
		return Session{}, fmt.Errorf("%w: name, email, and password are required", ErrIdentityInvalidInput)
	}
	if cmd.IsSeller {
		if strings.TrimSpace(cmd.BusinessName) == "" || strings.TrimSpace(cmd.BusinessAddress) == "" {
			return Session{}, fmt.Errorf("%w: business name and address are required for seller accounts", ErrIdentityInvalidInput)
		}
	}

	session, err := s.loadSession(ctx, sid)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	session.User = &domain.UserProfile{
		ID:       "user-" + strings.ToLower(strings.TrimSpace(s.newID())),
		Name:     name,
		Email:    email,
		Rating:   0,
		Reviews:  0,
		IsSeller: cmd.IsSeller,
		JoinDate: now,
		Location: "",
	}
	session.UpdatedAt = now

	saved, err := s.sessions.UpsertSession(ctx, session)
	if err != nil {
		return Session{}, s.translateRepoError(err)
	}

	s.logger(ctx, "identity.registered", map[string]any{
		"sessionID": sid,
		"seller":    cmd.IsSeller,
	})
	return saved, nil
}

// Logout clears the signed-in profile and liked products while keeping the session alive.
func (s *identityService) Logout(ctx context.Context, sessionID string) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, ErrIdentityUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return Session{}, ErrIdentityInvalidInput
	}

	session, err := s.loadSession(ctx, sid)
	if err != nil {
		return Session{}, err
	}

	session.User = nil
	session.LikedProductIDs = nil
	session.UpdatedAt = s.now()

	saved, err := s.sessions.UpsertSession(ctx, session)
	if err != nil {
		return Session{}, s.translateRepoError(err)
	}

	s.logger(ctx, "identity.logout", map[string]any{"sessionID": sid})
	return saved, nil
}

// ToggleLikedProduct flips the liked state for the product. Guests are a no-op.
func (s *identityService) ToggleLikedProduct(ctx context.Context, cmd ToggleLikedProductCommand) (Session, error) {
	if s == nil || s.sessions == nil {
		return Session{}, ErrIdentityUnavailable
	}

	sid := strings.TrimSpace(cmd.SessionID)
	if sid == "" {
		return Session{}, ErrIdentityInvalidInput
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Session{}, fmt.Errorf("%w: product_id is required", ErrIdentityInvalidInput)
	}

	session, err := s.loadSession(ctx, sid)
	if err != nil {
		return Session{}, err
	}

	if session.User == nil {
		return session, nil
	}

	if idx := likedIndex(session.LikedProductIDs, productID); idx >= 0 {
		session.LikedProductIDs = append(session.LikedProductIDs[:idx], session.LikedProductIDs[idx+1:]...)
	} else {
		session.LikedProductIDs = append(session.LikedProductIDs, productID)
	}
	session.UpdatedAt = s.now()

	saved, err := s.sessions.UpsertSession(ctx, session)
	if err != nil {
		return Session{}, s.translateRepoError(err)
	}
	return saved, nil
}

// ListLikedProducts resolves the liked set against the catalog, skipping
// products that no longer exist.
func (s *identityService) ListLikedProducts(ctx context.Context, sessionID string) ([]Product, error) {
	if s == nil || s.sessions == nil {
		return nil, ErrIdentityUnavailable
	}

	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, ErrIdentityInvalidInput
	}

	session, err := s.loadSession(ctx, sid)
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(session.LikedProductIDs))
	for _, productID := range session.LikedProductIDs {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			if isRepoNotFound(err) {
				continue
			}
			return nil, s.translateRepoError(err)
		}
		products = append(products, product)
	}
	return products, nil
}

func (s *identityService) loadSession(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Session{}, ErrIdentitySessionNotFound
		}
		return domain.Session{}, s.translateRepoError(err)
	}
	return session, nil
}

func emailLocalPart(email string) string {
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}

func likedIndex(ids []string, productID string) int {
	for i, id := range ids {
		if strings.EqualFold(id, productID) {
			return i
		}
	}
	return -1
}

func (s *identityService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrIdentitySessionNotFound
		case repoErr.IsConflict():
			return ErrIdentityInvalidInput
		case repoErr.IsUnavailable():
			return ErrIdentityUnavailable
		}
	}
	return ErrIdentityUnavailable
}
