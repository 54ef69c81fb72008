package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/service"
)

// StatsHandler serves dashboard counters.
type StatsHandler struct {
	query *service.QueryService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(query *service.QueryService) *StatsHandler {
	return &StatsHandler{query: query}
}

// GetStats handles GET /api/stats.
func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.query.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statsResponse(stats)})
}
