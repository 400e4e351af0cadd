package middleware

import (
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// Metrics records request count, errors and latency per route pattern.
func Metrics(appMetrics *metrics.AppMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := "unknown"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		appMetrics.RecordHTTPRequest(c.UserContext(), c.Method(), route, status, time.Since(start))
		return err
	}
}
