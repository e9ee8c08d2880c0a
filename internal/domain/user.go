package domain

import "time"

const MinPasswordLength = 6

// User is an account held by the built-in identity provider.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
