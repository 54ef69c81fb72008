package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/repository/gormstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type stubClassifier struct {
	mu       sync.Mutex
	category string
	calls    int
}

func (s *stubClassifier) Classify(_ context.Context, _, _ string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.category
}

func (s *stubClassifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type harness struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	classifier *stubClassifier
	clock      *fakeClock
	dispatcher events.Dispatcher
	published  []events.Event
	svc        *TicketService
	query      *QueryService

	reporter  domain.User
	reporter2 domain.User
	admin     domain.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lite, err := persistence.NewSQLite(filepath.Join(t.TempDir(), "tickets.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(lite.Close)
	require.NoError(t, gormstore.AutoMigrate(lite.DB))

	h := &harness{
		users:      gormstore.NewUserRepository(lite.DB),
		tickets:    gormstore.NewTicketRepository(lite.DB),
		classifier: &stubClassifier{category: "Technical Issue"},
		clock:      newFakeClock(),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	for _, eventType := range events.TicketEventTypes {
		h.dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			h.published = append(h.published, e)
			return nil
		})
	}
	h.svc = h.ticketService(h.tickets)
	h.query = NewQueryService(h.tickets, nil, nil, zap.NewNop())

	h.reporter = h.addUser(t, "reporter1@example.com", domain.UserRoleReporter)
	h.reporter2 = h.addUser(t, "reporter2@example.com", domain.UserRoleReporter)
	h.admin = h.addUser(t, "admin1@example.com", domain.UserRoleAdmin)
	return h
}

func (h *harness) ticketService(tickets repository.TicketRepository) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   h.users,
		Classifier: h.classifier,
		Dispatcher: h.dispatcher,
		Logger:     zap.NewNop(),
		Clock:      h.clock.Now,
	})
}

func (h *harness) addUser(t *testing.T, email string, role domain.UserRole) domain.User {
	t.Helper()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         email,
		Role:         role,
		PasswordHash: "x",
		CreatedAt:    h.clock.Now(),
	}
	require.NoError(t, h.users.Create(context.Background(), &user))
	return user
}

func (h *harness) create(t *testing.T, title string, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := h.svc.Create(context.Background(), TicketCreateInput{
		Title:       title,
		Description: title + " description",
		Priority:    priority,
		ReporterID:  h.reporter.ID,
	})
	require.NoError(t, err)
	return ticket
}

func (h *harness) get(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := h.tickets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

func ptr[T any](v T) *T {
	return &v
}

func ticketIDs(tickets []domain.Ticket) []string {
	out := make([]string, len(tickets))
	for i, ticket := range tickets {
		out[i] = ticket.ID
	}
	return out
}

// failingTickets fails every write while delegating reads.
type failingTickets struct {
	repository.TicketRepository
}

var errDiskFull = errors.New("disk I/O error")

func (failingTickets) Create(context.Context, *domain.Ticket) error {
	return errDiskFull
}

func (failingTickets) ApplyPatch(context.Context, string, repository.TicketPatch) (*domain.Ticket, error) {
	return nil, errDiskFull
}

func (failingTickets) SetCategory(context.Context, string, string, time.Time) (*domain.Ticket, error) {
	return nil, errDiskFull
}

func (failingTickets) Stats(context.Context) (domain.TicketStats, error) {
	return domain.TicketStats{}, errDiskFull
}
