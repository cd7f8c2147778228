package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 24 * time.Hour
	defaultIssuer   = "my-store-api"
)

var (
	// ErrTokenExpired signals that the presented session token has expired.
	ErrTokenExpired = errors.New("auth: session token expired")
	// ErrTokenInvalid signals that the presented session token failed verification.
	ErrTokenInvalid = errors.New("auth: session token invalid")
)

type sessionClaims struct {
	jwt.RegisteredClaims

	SessionID string `json:"sid"`
}

// TokenManager issues and verifies signed session tokens. Tokens carry only
// the session identifier; the session record itself stays server side so a
// token survives login and logout without reissue.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption customises the TokenManager.
type TokenOption func(*TokenManager)

// WithTokenTTL overrides the token lifetime.
func WithTokenTTL(d time.Duration) TokenOption {
	return func(m *TokenManager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithTokenIssuer overrides the issuer claim.
func WithTokenIssuer(issuer string) TokenOption {
	return func(m *TokenManager) {
		issuer = strings.TrimSpace(issuer)
		if issuer != "" {
			m.issuer = issuer
		}
	}
}

// WithTokenClock injects a custom clock, primarily for tests.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewTokenManager constructs a TokenManager signing with the shared secret.
func NewTokenManager(secret string, opts ...TokenOption) (*TokenManager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: token secret is required")
	}

	manager := &TokenManager{
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		issuer: defaultIssuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(manager)
		}
	}

	return manager, nil
}

// Issue mints a signed token bound to the session identifier.
func (m *TokenManager) Issue(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", errors.New("auth: session id is required")
	}

	now := m.now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns the embedded session identifier.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", ErrTokenInvalid
	}

	claims := &sessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	sessionID := strings.TrimSpace(claims.SessionID)
	if sessionID == "" {
		sessionID = strings.TrimSpace(claims.Subject)
	}
	if sessionID == "" {
		return "", ErrTokenInvalid
	}
	return sessionID, nil
}
