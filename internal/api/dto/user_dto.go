package dto

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// UserResponse is the public user representation. Credential hashes are never rendered.
type UserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      domain.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}
