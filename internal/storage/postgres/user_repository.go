package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anchalk04/smart-parking/internal/auth"
	"github.com/anchalk04/smart-parking/internal/domain"
)

// UserRepository is the identity provider backed by the users table.
type UserRepository struct {
	conn
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{conn{pool: pool}}
}

func (r *UserRepository) Register(ctx context.Context, email, password string) (domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	var u domain.User
	err = r.queryRow(ctx, `
INSERT INTO users (email, password_hash)
VALUES ($1, $2)
RETURNING id::text, email, password_hash, created_at`, email, hash).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	var u domain.User
	err := r.queryRow(ctx, `
SELECT id::text, email, password_hash, created_at
FROM users
WHERE lower(email) = lower($1)`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return u, nil
}
