package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/infrastructure/circuitbreaker"
)

// CircuitBreaker sheds load while the breaker is open. Only internal errors
// count as failures; provider outages have their own breakers and client
// mistakes never trip it.
func CircuitBreaker(b *circuitbreaker.Breaker, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var handlerErr error
		_, err := circuitbreaker.Execute(b, func() (struct{}, error) {
			handlerErr = c.Next()
			if handlerErr != nil && statusOf(handlerErr) == fiber.StatusInternalServerError {
				return struct{}{}, handlerErr
			}
			return struct{}{}, nil
		})

		if circuitbreaker.IsOpen(err) {
			log.Warn("Request rejected by open circuit breaker", zap.String("path", c.Path()))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":     "Service temporarily unavailable",
				"retriable": true,
			})
		}
		return handlerErr
	}
}
