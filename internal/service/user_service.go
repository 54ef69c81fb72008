package service

import (
	"context"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// UserService exposes the user directory.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Directory resolves the given ids to users, keyed by id. Unknown ids are omitted.
func (s *UserService) Directory(ctx context.Context, ids []string) (map[string]domain.User, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	directory := make(map[string]domain.User, len(unique))
	if len(unique) == 0 {
		return directory, nil
	}
	users, err := s.users.ListByIDs(ctx, unique)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	for _, u := range users {
		directory[u.ID] = u
	}
	return directory, nil
}

// TicketUserIDs collects reporter and assigned admin ids referenced by tickets.
func TicketUserIDs(tickets ...domain.Ticket) []string {
	ids := make([]string, 0, len(tickets)*2)
	for _, t := range tickets {
		ids = append(ids, t.ReporterID)
		if t.AssignedAdminID != nil {
			ids = append(ids, *t.AssignedAdminID)
		}
	}
	return ids
}
