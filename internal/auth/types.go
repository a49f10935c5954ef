package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is an account in the backing service's user store. The ID doubles as
// the token subject.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
