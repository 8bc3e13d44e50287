package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/middleware"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/service"
)

type ProfileHandler struct {
	svc *service.ProfileService
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Me handles GET /api/me. The first call provisions the profile.
func (h *ProfileHandler) Me(c fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	profile, err := h.svc.Me(c.Context(), actor)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(profile)
}
