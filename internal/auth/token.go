// Package auth issues and verifies the bearer tokens that identify a
// caller, and carries the verified user id on the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/anchalk04/smart-parking/internal/clock"
	"github.com/anchalk04/smart-parking/internal/domain"
)

const DefaultTokenTTL = 2 * time.Hour

var (
	ErrMissingToken   = fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	ErrInvalidToken   = fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	ErrMissingSubject = fmt.Errorf("%w: token carries no user_id", domain.ErrUnauthenticated)
)

// Claims is the token payload. UserID duplicates the registered subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenManager(secret string, ttl time.Duration, clk clock.Clock) (*TokenManager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth secret not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, clock: clk}, nil
}

func (m *TokenManager) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, domain.ErrUserIDRequired
	}
	now := m.clock.Now()
	exp := now.Add(m.ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the token's user id.
func (m *TokenManager) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.UserID == "" {
		return "", ErrMissingSubject
	}
	return claims.UserID, nil
}

// ExtractBearer returns the token from an Authorization header value, or ""
// when the header is not a bearer credential.
func ExtractBearer(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type ctxKey string

const userIDKey ctxKey = "userID"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}
