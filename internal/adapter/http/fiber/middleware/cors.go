package middleware

import (
	"errors"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/smilecrm/smilecrm-voice/pkg/config"
)

// Browser clients upload recordings as multipart POSTs with a bearer token
// and read back the request id for support tickets.
var (
	voiceMethods       = []string{fiber.MethodPost, fiber.MethodOptions}
	voiceHeaders       = []string{fiber.HeaderAuthorization, fiber.HeaderContentType, fiber.HeaderXRequestID}
	voiceExposeHeaders = []string{fiber.HeaderXRequestID}
)

const preflightMaxAge = 600

// ErrCORSWildcardCredentials rejects credentials combined with any origin.
var ErrCORSWildcardCredentials = errors.New("cors: credentials require explicit allowed origins")

// VoiceCORS builds the CORS handler for the voice API group. Configured
// lists replace the defaults.
func VoiceCORS(cfg config.CORSConfig) (fiber.Handler, error) {
	origins := orDefault(cfg.AllowedOrigins, []string{"*"})
	if cfg.Credentials && slices.Contains(origins, "*") {
		return nil, ErrCORSWildcardCredentials
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = preflightMaxAge
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     strings.Join(orDefault(cfg.AllowedMethods, voiceMethods), ","),
		AllowHeaders:     strings.Join(orDefault(cfg.AllowedHeaders, voiceHeaders), ","),
		ExposeHeaders:    strings.Join(orDefault(cfg.ExposeHeaders, voiceExposeHeaders), ","),
		AllowCredentials: cfg.Credentials,
		MaxAge:           maxAge,
	}), nil
}

func orDefault(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}
