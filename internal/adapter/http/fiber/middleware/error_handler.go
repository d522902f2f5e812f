package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// ErrorHandler renders domain errors as {"error", "kind", "retriable"} with
// a status derived from the error kind.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		body := fiber.Map{"error": err.Error()}

		var fe *fiber.Error
		var de *domain.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			body["error"] = fe.Message
		case errors.As(err, &de):
			code = StatusFor(de)
			body["error"] = de.Message
			body["kind"] = de.Kind
			body["retriable"] = de.Retriable()
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("Request failed",
				zap.Int("status", code),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(body)
	}
}

// StatusFor maps an error kind, and for voice actions its cause, to HTTP.
func StatusFor(e *domain.Error) int {
	switch e.Kind {
	case domain.KindAudioValidation:
		if errors.Is(e, domain.ErrAudioTooLarge) {
			return fiber.StatusRequestEntityTooLarge
		}
		return fiber.StatusBadRequest
	case domain.KindInvalidRequest:
		return fiber.StatusBadRequest
	case domain.KindTranscription, domain.KindParsing:
		return fiber.StatusBadGateway
	case domain.KindNotConfigured:
		return fiber.StatusServiceUnavailable
	case domain.KindVoiceAction:
		switch {
		case errors.Is(e, domain.ErrPatientNotFound):
			return fiber.StatusNotFound
		case errors.Is(e, domain.ErrPatientAccessDenied):
			return fiber.StatusForbidden
		}
	}
	return fiber.StatusInternalServerError
}

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return StatusFor(de)
	}
	return fiber.StatusInternalServerError
}
