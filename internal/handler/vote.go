package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/middleware"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/service"
)

type VoteHandler struct {
	svc *service.VoteService
}

func NewVoteHandler(svc *service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Cast handles POST /api/products/:id/vote
func (h *VoteHandler) Cast(c fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	productID, errMsg := middleware.ValidateProductID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.svc.Cast(c.Context(), actor, productID)
	if err != nil {
		return respondError(c, err, "You have already voted for this product")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Retract handles DELETE /api/products/:id/vote
func (h *VoteHandler) Retract(c fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	productID, errMsg := middleware.ValidateProductID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.svc.Retract(c.Context(), actor, productID)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(resp)
}

// Mine handles GET /api/me/votes
func (h *VoteHandler) Mine(c fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	votes, err := h.svc.UserVotes(c.Context(), actor.UserID)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"votes": votes})
}
