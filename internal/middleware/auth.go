package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

const actorKey = "actor"

// TokenVerifier turns a bearer token into the caller it identifies.
// *identity.Verifier implements it.
type TokenVerifier interface {
	Verify(raw string) (model.Actor, error)
}

// ActorFrom returns the authenticated caller stored by OptionalAuth or
// RequireAuth.
func ActorFrom(c fiber.Ctx) (model.Actor, bool) {
	actor, ok := c.Locals(actorKey).(model.Actor)
	return actor, ok
}

func bearerToken(c fiber.Ctx) string {
	raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}

// OptionalAuth resolves the caller when a valid bearer token is present.
// Requests without one, or with a bad one, continue anonymously.
func OptionalAuth(v TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		if raw := bearerToken(c); raw != "" {
			actor, err := v.Verify(raw)
			if err == nil {
				c.Locals(actorKey, actor)
			} else {
				Logger.Debug().Err(err).Msg("ignoring invalid bearer token")
			}
		}
		return c.Next()
	}
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(v TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		if _, ok := ActorFrom(c); ok {
			return c.Next()
		}
		raw := bearerToken(c)
		if raw == "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		}
		actor, err := v.Verify(raw)
		if err != nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}
