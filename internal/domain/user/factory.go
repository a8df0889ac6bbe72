package user

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest materializes a User for the stores that generate ids
// application-side (relational, memory). The document store mints its own id.
func NewFromCreateRequest(req CreateUserRequest) User {
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
