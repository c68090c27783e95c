package identity

import "time"

// User represents a registered account holder and wallet owner.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash []byte
	Active       bool
	CreatedAt    time.Time
}

// Registration carries the data required to create an account.
type Registration struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Credentials is an email/password login attempt.
type Credentials struct {
	Email    string
	Password string
}
