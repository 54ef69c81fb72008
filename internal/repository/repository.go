package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("record conflicts with existing data")
)

// TicketFilter captures optional equality predicates, combined with AND.
type TicketFilter struct {
	Status          *domain.TicketStatus
	Priority        *domain.TicketPriority
	AssignedAdminID *string
	ReporterID      *string
}

// TicketPatch lists the columns an update writes. Absent fields are left alone.
// When Status is set, closed_at is written from ClosedAt (nil clears it).
type TicketPatch struct {
	Status           *domain.TicketStatus
	ClosedAt         *time.Time
	Priority         *domain.TicketPriority
	SetAssignedAdmin bool
	AssignedAdminID  *string
	UpdatedAt        time.Time
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ApplyPatch writes the patch in one transaction and returns the committed row.
	ApplyPatch(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error)
	SetCategory(ctx context.Context, id, category string, updatedAt time.Time) (*domain.Ticket, error)
	// List orders by created_at descending, earlier inserts first on ties.
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Stats(ctx context.Context) (domain.TicketStats, error)
}
