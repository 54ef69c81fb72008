package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/cache"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

func TestListTicketsNewestFirst(t *testing.T) {
	h := newHarness(t)
	t1 := h.create(t, "first", domain.TicketPriorityLow)
	h.clock.Advance(time.Second)
	t2 := h.create(t, "second", domain.TicketPriorityHigh)
	h.clock.Advance(time.Second)
	t3 := h.create(t, "third", domain.TicketPriorityLow)

	all, err := h.query.ListTickets(context.Background(), TicketListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{t3.ID, t2.ID, t1.ID}, ticketIDs(all))
}

func TestListTicketsTiesKeepInsertionOrder(t *testing.T) {
	h := newHarness(t)
	a := h.create(t, "a", domain.TicketPriorityLow)
	b := h.create(t, "b", domain.TicketPriorityLow)
	c := h.create(t, "c", domain.TicketPriorityLow)

	all, err := h.query.ListTickets(context.Background(), TicketListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ticketIDs(all))
}

func TestListTicketsFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	open1 := h.create(t, "open one", domain.TicketPriorityHigh)
	h.clock.Advance(time.Second)
	closed := h.create(t, "closed", domain.TicketPriorityHigh)
	_, err := h.svc.Update(ctx, closed.ID, TicketUpdateInput{Status: ptr(domain.TicketStatusClosed)})
	require.NoError(t, err)
	h.clock.Advance(time.Second)
	open2 := h.create(t, "open two", domain.TicketPriorityLow)
	_, err = h.svc.Update(ctx, open2.ID, TicketUpdateInput{AssignedAdmin: &domain.AdminAssignment{AdminID: ptr(h.admin.ID)}})
	require.NoError(t, err)
	h.clock.Advance(time.Second)
	other, err := h.svc.Create(ctx, TicketCreateInput{
		Title:       "from reporter two",
		Description: "d",
		Priority:    domain.TicketPriorityHigh,
		ReporterID:  h.reporter2.ID,
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter TicketListFilter
		want   []string
	}{
		{name: "status", filter: TicketListFilter{Status: ptr(domain.TicketStatusOpen)}, want: []string{other.ID, open2.ID, open1.ID}},
		{name: "priority", filter: TicketListFilter{Priority: ptr(domain.TicketPriorityHigh)}, want: []string{other.ID, closed.ID, open1.ID}},
		{name: "assigned admin", filter: TicketListFilter{AssignedAdminID: ptr(h.admin.ID)}, want: []string{open2.ID}},
		{name: "reporter", filter: TicketListFilter{ReporterID: ptr(h.reporter2.ID)}, want: []string{other.ID}},
		{
			name:   "combined with and",
			filter: TicketListFilter{Status: ptr(domain.TicketStatusOpen), Priority: ptr(domain.TicketPriorityHigh), ReporterID: ptr(h.reporter.ID)},
			want:   []string{open1.ID},
		},
		{name: "no match", filter: TicketListFilter{Status: ptr(domain.TicketStatusInProgress)}, want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := h.query.ListTickets(ctx, tc.filter)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Equal(t, tc.want, ticketIDs(got))
		})
	}
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	empty, err := h.query.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{}, empty)

	seed := []struct {
		priority domain.TicketPriority
		status   domain.TicketStatus
	}{
		{domain.TicketPriorityHigh, domain.TicketStatusOpen},
		{domain.TicketPriorityHigh, domain.TicketStatusClosed},
		{domain.TicketPriorityLow, domain.TicketStatusOpen},
		{domain.TicketPriorityCritical, domain.TicketStatusInProgress},
	}
	for _, s := range seed {
		ticket := h.create(t, string(s.priority), s.priority)
		if s.status != domain.TicketStatusOpen {
			_, err := h.svc.Update(ctx, ticket.ID, TicketUpdateInput{Status: ptr(s.status)})
			require.NoError(t, err)
		}
	}

	stats, err := h.query.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{
		Total:      4,
		ByStatus:   domain.StatusBreakdown{Open: 2, InProgress: 1, Closed: 1},
		ByPriority: domain.PriorityBreakdown{Critical: 1, High: 2, Medium: 0, Low: 1},
	}, stats)
}

func TestStatsStorageFailure(t *testing.T) {
	h := newHarness(t)
	query := NewQueryService(failingTickets{h.tickets}, nil, nil, zap.NewNop())

	_, err := query.Stats(context.Background())

	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorage))
}

func TestStatsFallsBackWhenCacheUnavailable(t *testing.T) {
	h := newHarness(t)
	h.create(t, "cached", domain.TicketPriorityMedium)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	metrics := observability.NewMetrics()
	query := NewQueryService(h.tickets, cache.NewStatsCache(client, time.Minute), metrics, zap.NewNop())

	stats, err := query.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.ByPriority.Medium)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StatsCacheCounter(statsCacheError)))
	assert.Error(t, query.InvalidateStats(context.Background()))
}

// generationCache mirrors the Redis layout: one entry per generation.
type generationCache struct {
	mu         sync.Mutex
	generation int64
	entries    map[int64]domain.TicketStats
}

func newGenerationCache() *generationCache {
	return &generationCache{entries: map[int64]domain.TicketStats{}}
}

func (c *generationCache) Enabled() bool { return true }

func (c *generationCache) Get(context.Context) (*domain.TicketStats, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stats, ok := c.entries[c.generation]; ok {
		return &stats, c.generation, nil
	}
	return nil, c.generation, nil
}

func (c *generationCache) Set(_ context.Context, generation int64, stats domain.TicketStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[generation] = stats
	return nil
}

func (c *generationCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return nil
}

// statsHookTickets runs afterStats once, between the store read and the cache fill.
type statsHookTickets struct {
	repository.TicketRepository
	afterStats func()
}

func (r *statsHookTickets) Stats(ctx context.Context) (domain.TicketStats, error) {
	stats, err := r.TicketRepository.Stats(ctx)
	if hook := r.afterStats; hook != nil {
		r.afterStats = nil
		hook()
	}
	return stats, err
}

func TestStatsCacheNotRefilledWithCountsReadBeforeAnUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket := h.create(t, "racing", domain.TicketPriorityLow)

	statsCache := newGenerationCache()
	tickets := &statsHookTickets{TicketRepository: h.tickets}
	query := NewQueryService(tickets, statsCache, nil, zap.NewNop())
	tickets.afterStats = func() {
		_, err := h.svc.Update(ctx, ticket.ID, TicketUpdateInput{Status: ptr(domain.TicketStatusClosed)})
		require.NoError(t, err)
		require.NoError(t, query.InvalidateStats(ctx))
	}

	stale, err := query.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.ByStatus.Open)

	fresh, err := query.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.ByStatus.Open)
	assert.Equal(t, int64(1), fresh.ByStatus.Closed)

	cached, _, err := statsCache.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, fresh, *cached)
}

func TestClosedIffClosedAtHoldsAcrossTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket := h.create(t, "cycle", domain.TicketPriorityMedium)

	sequence := []domain.TicketStatus{
		domain.TicketStatusInProgress,
		domain.TicketStatusClosed,
		domain.TicketStatusClosed,
		domain.TicketStatusOpen,
		domain.TicketStatusClosed,
		domain.TicketStatusInProgress,
	}
	for _, status := range sequence {
		h.clock.Advance(time.Second)
		_, err := h.svc.Update(ctx, ticket.ID, TicketUpdateInput{Status: ptr(status)})
		require.NoError(t, err)

		all, err := h.query.ListTickets(ctx, TicketListFilter{})
		require.NoError(t, err)
		for _, got := range all {
			assert.Equal(t, got.Status == domain.TicketStatusClosed, got.ClosedAt != nil, "status %s", got.Status)
		}
	}
}
