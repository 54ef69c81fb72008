package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RouteLabels returns the matched route template and method as metric labels.
// Fiber hands out strings backed by reused request buffers, so both are copied.
func RouteLabels(c *fiber.Ctx) (route, method string) {
	route = c.Route().Path
	if route == "" {
		route = "unmatched"
	}
	return utils.CopyString(route), utils.CopyString(c.Method())
}

// RequestLogger logs every request and records its metrics.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		route, method := RouteLabels(c)
		metrics.RecordRequest(route, method, status, duration)

		logger.Info("request",
			zap.String("method", method),
			zap.String("path", utils.CopyString(c.Path())),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
		return err
	}
}
