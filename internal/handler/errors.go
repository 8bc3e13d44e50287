package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/middleware"
)

// blockedMessage deliberately says nothing about which signals fired.
const blockedMessage = "This action was blocked. Please contact support if you think this is a mistake."

// respondError maps service errors onto the API error envelope. conflictMsg
// is the 409 message for the calling operation.
func respondError(c fiber.Ctx, err error, conflictMsg string) error {
	var rle *common.RateLimitError
	if errors.As(err, &rle) {
		return middleware.RateLimited(c, rle)
	}

	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", ve.Error())
	}

	switch {
	case errors.Is(err, common.ErrBlocked):
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "BLOCKED", blockedMessage)
	case errors.Is(err, common.ErrConflict):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "CONFLICT", conflictMsg)
	case errors.Is(err, common.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Not found")
	case errors.Is(err, common.ErrUpstream):
		middleware.Logger.Error().Err(err).Str("path", c.Path()).Msg("upstream failure")
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "UPSTREAM_ERROR", "Service temporarily unavailable")
	default:
		middleware.Logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func unauthorized(c fiber.Ctx) error {
	return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
}
