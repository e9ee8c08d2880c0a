package app

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/anchalk04/smart-parking/internal/domain"
)

// IdentityProvider owns user accounts and password verification.
type IdentityProvider interface {
	Register(ctx context.Context, email, password string) (domain.User, error)
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
}

// TokenIssuer signs bearer credentials for an authenticated user.
type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
}

type AuthService struct {
	identity IdentityProvider
	tokens   TokenIssuer
}

func NewAuthService(identity IdentityProvider, tokens TokenIssuer) *AuthService {
	return &AuthService{identity: identity, tokens: tokens}
}

type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) normalize() (Credentials, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		return Credentials{}, domain.ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Credentials{}, domain.ErrEmailRequired
	}
	if len(c.Password) < domain.MinPasswordLength {
		return Credentials{}, domain.ErrPasswordTooShort
	}
	return Credentials{Email: email, Password: c.Password}, nil
}

func (s *AuthService) Register(ctx context.Context, in Credentials) (domain.User, error) {
	creds, err := in.normalize()
	if err != nil {
		return domain.User{}, err
	}
	return s.identity.Register(ctx, creds.Email, creds.Password)
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
}

// Login verifies the password and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, in Credentials) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	u, err := s.identity.Authenticate(ctx, email, in.Password)
	if err != nil {
		return LoginResult{}, err
	}
	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp, UserID: u.ID}, nil
}
