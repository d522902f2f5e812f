package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/observability/telemetry"
)

// RequestLogger logs each request and records its latency and status.
// It must run before the handlers so it sees the final status.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		route := c.Route().Path
		duration := time.Since(start)

		telemetry.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		}
		if id, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		if doctorID, ok := c.Locals("doctor_id").(string); ok {
			fields = append(fields, zap.String("doctor_id", doctorID))
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
			log.Warn("HTTP request failed", fields...)
		} else {
			log.Info("HTTP request completed", fields...)
		}
		return err
	}
}
