package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// Stats cache lookup results.
const (
	statsCacheHit   = "hit"
	statsCacheMiss  = "miss"
	statsCacheError = "error"
)

// StatsCache is the read-through cache behind Stats. Get reports the generation
// it looked at; Set must be given that generation so a rollup read before an
// invalidation is never served after it.
type StatsCache interface {
	Enabled() bool
	Get(ctx context.Context) (*domain.TicketStats, int64, error)
	Set(ctx context.Context, generation int64, stats domain.TicketStats) error
	Invalidate(ctx context.Context) error
}

// QueryService answers read-only ticket queries.
type QueryService struct {
	tickets repository.TicketRepository
	cache   StatsCache
	metrics *observability.Metrics
	logger  *zap.Logger
}

// TicketListFilter holds optional equality filters; nil fields impose no constraint.
type TicketListFilter struct {
	Status          *domain.TicketStatus
	Priority        *domain.TicketPriority
	AssignedAdminID *string
	ReporterID      *string
}

// NewQueryService constructs the service. statsCache and metrics may be nil.
func NewQueryService(tickets repository.TicketRepository, statsCache StatsCache, metrics *observability.Metrics, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		tickets: tickets,
		cache:   statsCache,
		metrics: metrics,
		logger:  logger,
	}
}

// ListTickets returns matching tickets, newest first. No match yields an empty slice.
func (s *QueryService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		Status:          filter.Status,
		Priority:        filter.Priority,
		AssignedAdminID: filter.AssignedAdminID,
		ReporterID:      filter.ReporterID,
	})
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// Stats returns counts over every ticket, served from the cache when possible.
func (s *QueryService) Stats(ctx context.Context) (domain.TicketStats, error) {
	fill := false
	var generation int64
	if s.cache != nil && s.cache.Enabled() {
		cached, gen, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.metrics.RecordStatsCache(statsCacheError)
			s.logger.Warn("stats cache read failed", zap.Error(err))
		case cached != nil:
			s.metrics.RecordStatsCache(statsCacheHit)
			return *cached, nil
		default:
			s.metrics.RecordStatsCache(statsCacheMiss)
			fill, generation = true, gen
		}
	}

	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		return domain.TicketStats{}, apperrors.NewStorageError(err)
	}

	if fill {
		if err := s.cache.Set(ctx, generation, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// InvalidateStats drops the cached rollup after a ticket write.
func (s *QueryService) InvalidateStats(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}
