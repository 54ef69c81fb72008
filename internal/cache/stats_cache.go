package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Redis keys. The rollup lives under StatsKeyPrefix plus the current generation;
// invalidation bumps the generation so rollups computed earlier are never read again.
const (
	StatsKeyPrefix     = "ticket-triage:stats:"
	StatsGenerationKey = "ticket-triage:stats-generation"
)

// StatsCache keeps the latest ticket statistics in Redis for a short TTL.
// A nil *StatsCache is valid and behaves as a permanently empty cache.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedStats struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	Closed     int64 `json:"closed"`
	Critical   int64 `json:"critical"`
	High       int64 `json:"high"`
	Medium     int64 `json:"medium"`
	Low        int64 `json:"low"`
}

// NewStatsCache returns nil when there is no client or the TTL disables caching.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Enabled reports whether lookups reach Redis.
func (c *StatsCache) Enabled() bool {
	return c != nil
}

func statsKey(generation int64) string {
	return StatsKeyPrefix + strconv.FormatInt(generation, 10)
}

// Get returns the cached stats, or nil on a miss, together with the generation
// it looked at. Callers that fill a miss pass that generation back to Set.
func (c *StatsCache) Get(ctx context.Context) (*domain.TicketStats, int64, error) {
	if c == nil {
		return nil, 0, nil
	}
	generation, err := c.client.Get(ctx, StatsGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("read stats generation: %w", err)
	}

	raw, err := c.client.Get(ctx, statsKey(generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, generation, nil
	}
	if err != nil {
		return nil, generation, fmt.Errorf("read stats cache: %w", err)
	}

	var cached cachedStats
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, generation, fmt.Errorf("decode stats cache: %w", err)
	}
	stats := domain.TicketStats{
		Total: cached.Total,
		ByStatus: domain.StatusBreakdown{
			Open:       cached.Open,
			InProgress: cached.InProgress,
			Closed:     cached.Closed,
		},
		ByPriority: domain.PriorityBreakdown{
			Critical: cached.Critical,
			High:     cached.High,
			Medium:   cached.Medium,
			Low:      cached.Low,
		},
	}
	return &stats, generation, nil
}

// Set stores stats computed under generation. A write for a generation that has
// since been invalidated lands on a key nobody reads and expires on its TTL.
func (c *StatsCache) Set(ctx context.Context, generation int64, stats domain.TicketStats) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(cachedStats{
		Total:      stats.Total,
		Open:       stats.ByStatus.Open,
		InProgress: stats.ByStatus.InProgress,
		Closed:     stats.ByStatus.Closed,
		Critical:   stats.ByPriority.Critical,
		High:       stats.ByPriority.High,
		Medium:     stats.ByPriority.Medium,
		Low:        stats.ByPriority.Low,
	})
	if err != nil {
		return fmt.Errorf("encode stats cache: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(generation), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write stats cache: %w", err)
	}
	return nil
}

// Invalidate moves readers to a fresh generation.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Incr(ctx, StatsGenerationKey).Err(); err != nil {
		return fmt.Errorf("invalidate stats cache: %w", err)
	}
	return nil
}
