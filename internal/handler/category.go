package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/service"
)

type CategoryHandler struct {
	svc *service.CategoryService
}

func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// List handles GET /api/categories
func (h *CategoryHandler) List(c fiber.Ctx) error {
	cats, err := h.svc.List(c.Context())
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"categories": cats})
}
