package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/events"
)

// StatsInvalidator drops cached ticket statistics.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context) error
}

// StartStatsCacheInvalidation clears the stats cache after every ticket event.
// Failures are logged; the cache entry then expires on its TTL.
func StartStatsCacheInvalidation(dispatcher events.Dispatcher, invalidator StatsInvalidator, logger *zap.Logger) {
	if dispatcher == nil || invalidator == nil {
		return
	}
	handler := func(ctx context.Context, event events.Event) error {
		if err := invalidator.InvalidateStats(ctx); err != nil {
			logger.Warn("stats cache invalidation failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
		return nil
	}
	for _, eventType := range events.TicketEventTypes {
		dispatcher.Subscribe(eventType, handler)
	}
}
