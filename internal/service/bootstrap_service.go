package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/auth"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

type seedUser struct {
	email string
	name  string
	role  domain.UserRole
}

type seedTicket struct {
	title       string
	description string
	priority    domain.TicketPriority
	reporter    string
}

var seedUsers = []seedUser{
	{email: "reporter1@example.com", name: "John Reporter", role: domain.UserRoleReporter},
	{email: "reporter2@example.com", name: "Jane User", role: domain.UserRoleReporter},
	{email: "admin1@example.com", name: "Admin Smith", role: domain.UserRoleAdmin},
	{email: "admin2@example.com", name: "Support Manager", role: domain.UserRoleAdmin},
}

var seedTickets = []seedTicket{
	{
		title:       "Cannot login to my account",
		description: "I keep getting an error message when trying to log in. It says invalid credentials but I am sure my password is correct.",
		priority:    domain.TicketPriorityHigh,
		reporter:    "reporter1@example.com",
	},
	{
		title:       "Website loading very slowly",
		description: "The website takes more than 30 seconds to load any page. This is affecting my productivity.",
		priority:    domain.TicketPriorityMedium,
		reporter:    "reporter2@example.com",
	},
	{
		title:       "Feature request: Dark mode",
		description: "It would be great if the application had a dark mode option for better user experience.",
		priority:    domain.TicketPriorityLow,
		reporter:    "reporter1@example.com",
	},
	{
		title:       "Critical bug in payment system",
		description: "Payments are failing with error code 500. This is affecting our business operations.",
		priority:    domain.TicketPriorityCritical,
		reporter:    "reporter2@example.com",
	},
}

// BootstrapService seeds a fresh store with demo users and tickets.
type BootstrapService struct {
	users     repository.UserRepository
	tickets   repository.TicketRepository
	ticketSvc *TicketService
	cfg       config.BootstrapConfig
	logger    *zap.Logger
	clock     Clock
}

// NewBootstrapService constructs the service.
func NewBootstrapService(users repository.UserRepository, tickets repository.TicketRepository, ticketSvc *TicketService, cfg config.BootstrapConfig, logger *zap.Logger, clock Clock) *BootstrapService {
	if clock == nil {
		clock = time.Now
	}
	return &BootstrapService{users: users, tickets: tickets, ticketSvc: ticketSvc, cfg: cfg, logger: logger, clock: clock}
}

// Seed creates whatever demo data is missing, as long as the store holds no
// users other than the demo ones. An interrupted run is completed on the next
// call. It reports whether anything was created.
func (b *BootstrapService) Seed(ctx context.Context) (bool, error) {
	count, err := b.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > int64(len(seedUsers)) {
		b.logger.Debug("store already in use, skipping seed", zap.Int64("users", count))
		return false, nil
	}

	existing, err := b.users.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list users: %w", err)
	}
	ids := make(map[string]string, len(seedUsers))
	for _, u := range existing {
		if !isSeedEmail(u.Email) {
			b.logger.Debug("store already in use, skipping seed", zap.Int64("users", count))
			return false, nil
		}
		ids[u.Email] = u.ID
	}

	createdUsers, err := b.seedUsers(ctx, ids)
	if err != nil {
		return false, err
	}
	createdTickets, err := b.seedTickets(ctx, ids)
	if err != nil {
		return false, err
	}

	created := createdUsers+createdTickets > 0
	switch {
	case created && len(existing) > 0:
		b.logger.Warn("completed interrupted seed",
			zap.Int("users", createdUsers),
			zap.Int("tickets", createdTickets))
	case created:
		b.logger.Info("seeded sample data",
			zap.Int("users", createdUsers),
			zap.Int("tickets", createdTickets))
	}
	return created, nil
}

func (b *BootstrapService) seedUsers(ctx context.Context, ids map[string]string) (int, error) {
	var hash string
	created := 0
	for _, su := range seedUsers {
		if _, ok := ids[su.email]; ok {
			continue
		}
		if hash == "" {
			h, err := auth.HashPassword(b.cfg.Password, b.cfg.BcryptCost)
			if err != nil {
				return created, fmt.Errorf("hash bootstrap password: %w", err)
			}
			hash = h
		}
		user := &domain.User{
			ID:           uuid.NewString(),
			Email:        su.email,
			Name:         su.name,
			Role:         su.role,
			PasswordHash: hash,
			CreatedAt:    b.clock().UTC().Truncate(time.Microsecond),
		}
		if err := b.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return created, apperrors.NewConflict("demo user created concurrently", map[string]any{"email": su.email})
			}
			return created, fmt.Errorf("create user %s: %w", su.email, err)
		}
		ids[su.email] = user.ID
		created++
	}
	return created, nil
}

func (b *BootstrapService) seedTickets(ctx context.Context, ids map[string]string) (int, error) {
	existing, err := b.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return 0, fmt.Errorf("list tickets: %w", err)
	}
	type ticketKey struct{ reporterID, title string }
	present := make(map[ticketKey]struct{}, len(existing))
	for _, t := range existing {
		present[ticketKey{t.ReporterID, t.Title}] = struct{}{}
	}

	created := 0
	for _, st := range seedTickets {
		reporterID := ids[st.reporter]
		if _, ok := present[ticketKey{reporterID, st.title}]; ok {
			continue
		}
		_, err := b.ticketSvc.Create(ctx, TicketCreateInput{
			Title:       st.title,
			Description: st.description,
			Priority:    st.priority,
			ReporterID:  reporterID,
		})
		if err != nil {
			return created, fmt.Errorf("create sample ticket %q: %w", st.title, err)
		}
		created++
	}
	return created, nil
}

func isSeedEmail(email string) bool {
	for _, su := range seedUsers {
		if su.email == email {
			return true
		}
	}
	return false
}
