package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/anchalk04/smart-parking/internal/auth"
	"github.com/anchalk04/smart-parking/internal/clock"
	"github.com/anchalk04/smart-parking/internal/domain"
)

// UserStore is an in-memory identity provider keyed by lowercased email.
type UserStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	byEmail map[string]domain.User
}

func NewUserStore(clk clock.Clock) *UserStore {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &UserStore{clock: clk, byEmail: map[string]domain.User{}}
}

func (s *UserStore) Register(ctx context.Context, email, password string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return domain.User{}, domain.ErrEmailTaken
	}
	u := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now().UTC(),
	}
	s.byEmail[email] = u
	return u, nil
}

func (s *UserStore) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	u, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return u, nil
}
