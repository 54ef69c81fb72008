package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// Classifier assigns a category label to a ticket. Implementations never fail;
// they fall back to a default label instead.
type Classifier interface {
	Classify(ctx context.Context, title, description string) string
}

// Clock returns the current time.
type Clock func() time.Time

// TicketService coordinates ticket workflows. It is the only writer of ticket
// state, category and timestamps.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	classifier Classifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Classifier Classifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// TicketCreateInput describes ticket creation payload. Empty strings are treated as absent.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	ReporterID  string
}

// TicketUpdateInput carries the fields of a partial update. Nil means the field was not supplied.
type TicketUpdateInput struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	AssignedAdmin *domain.AdminAssignment
}

// Empty reports whether no field was supplied.
func (in TicketUpdateInput) Empty() bool {
	return in.Status == nil && in.Priority == nil && in.AssignedAdmin == nil
}

// ReanalyzeResult is returned by Reanalyze.
type ReanalyzeResult struct {
	TicketID    string
	NewCategory string
	Ticket      *domain.Ticket
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		classifier: deps.Classifier,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		clock:      clock,
	}
}

// Create validates the input, classifies the ticket and stores it as open.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	reporterID := strings.TrimSpace(input.ReporterID)

	switch {
	case title == "":
		return nil, apperrors.NewFieldError("title", "is required")
	case description == "":
		return nil, apperrors.NewFieldError("description", "is required")
	case input.Priority == "":
		return nil, apperrors.NewFieldError("priority", "is required")
	case reporterID == "":
		return nil, apperrors.NewFieldError("reporter_id", "is required")
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewFieldError("priority", "must be one of "+domain.AllowedPriorities())
	}
	if err := s.requireRole(ctx, "reporter_id", reporterID, domain.UserRoleReporter); err != nil {
		return nil, err
	}

	category := s.classifier.Classify(ctx, title, description)

	now := s.now()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
		Category:    &category,
		ReporterID:  reporterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			ReporterID: ticket.ReporterID,
			Priority:   ticket.Priority,
			Category:   category,
			Title:      ticket.Title,
		},
	})
	return ticket, nil
}

// Update applies the supplied fields atomically. Any invalid field rejects the
// whole update before anything is written.
func (s *TicketService) Update(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	current, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewFieldError("status", "must be one of "+domain.AllowedStatuses())
	}
	if input.AssignedAdmin != nil && input.AssignedAdmin.AdminID != nil {
		if err := s.requireRole(ctx, "assigned_admin_id", *input.AssignedAdmin.AdminID, domain.UserRoleAdmin); err != nil {
			return nil, err
		}
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewFieldError("priority", "must be one of "+domain.AllowedPriorities())
	}

	if input.Empty() {
		return current, nil
	}

	now := s.now()
	patch := repository.TicketPatch{
		Status:    input.Status,
		Priority:  input.Priority,
		UpdatedAt: now,
	}
	var fields []string
	if input.Status != nil {
		if *input.Status == domain.TicketStatusClosed {
			patch.ClosedAt = &now
		}
		fields = append(fields, "status")
	}
	if input.AssignedAdmin != nil {
		patch.SetAssignedAdmin = true
		patch.AssignedAdminID = input.AssignedAdmin.AdminID
		fields = append(fields, "assigned_admin_id")
	}
	if input.Priority != nil {
		fields = append(fields, "priority")
	}

	updated, err := s.tickets.ApplyPatch(ctx, id, patch)
	if err != nil {
		return nil, ticketWriteError(err, id)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: updated.ID,
		Payload: events.TicketUpdatedPayload{
			OldStatus:          current.Status,
			NewStatus:          updated.Status,
			OldPriority:        current.Priority,
			NewPriority:        updated.Priority,
			OldAssignedAdminID: current.AssignedAdminID,
			NewAssignedAdminID: updated.AssignedAdminID,
			Fields:             fields,
		},
	})
	return updated, nil
}

// Reanalyze classifies the ticket again from its current title and description.
func (s *TicketService) Reanalyze(ctx context.Context, id string) (*ReanalyzeResult, error) {
	current, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	category := s.classifier.Classify(ctx, current.Title, current.Description)
	updated, err := s.tickets.SetCategory(ctx, id, category, s.now())
	if err != nil {
		return nil, ticketWriteError(err, id)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReanalyzed,
		TicketID: updated.ID,
		Payload: events.TicketReanalyzedPayload{
			OldCategory: current.Category,
			NewCategory: category,
		},
	})
	return &ReanalyzeResult{TicketID: updated.ID, NewCategory: category, Ticket: updated}, nil
}

func (s *TicketService) loadTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return ticket, nil
}

// requireRole checks that id names an existing user acting in role.
func (s *TicketService) requireRole(ctx context.Context, field, id string, role domain.UserRole) error {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewFieldError(field, "must reference an existing "+string(role))
	}
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	if !user.HasRole(role) {
		return apperrors.NewFieldError(field, "must reference a user with role "+string(role))
	}
	return nil
}

func (s *TicketService) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event subscriber failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// ticketWriteError maps a failed ticket write. A row that vanished between read
// and write reports not-found; anything else is a storage failure.
func ticketWriteError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return apperrors.NewStorageError(err)
}
