package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/middleware"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/service"
)

type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// List handles GET /api/products
func (h *ProductHandler) List(c fiber.Ctx) error {
	filters, errMsg := middleware.ParseFilters(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	limit, offset, errMsg := middleware.ParsePaging(c, repository.MaxPageSize)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	page, err := h.svc.List(c.Context(), filters, limit, offset)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(page)
}

// Search handles GET /api/products/search?q=
func (h *ProductHandler) Search(c fiber.Ctx) error {
	term, errMsg := middleware.ValidateSearchTerm(c.Query("q"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	filters, errMsg := middleware.ParseFilters(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	limit, offset, errMsg := middleware.ParsePaging(c, repository.MaxPageSize)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	page, err := h.svc.Search(c.Context(), term, filters, limit, offset)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(page)
}

// Trending handles GET /api/products/trending
func (h *ProductHandler) Trending(c fiber.Ctx) error {
	limit := service.DefaultTrendingLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > repository.MaxPageSize {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "limit must be between 1 and 100")
		}
		limit = n
	}

	products, err := h.svc.Trending(c.Context(), limit)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"products": products})
}

// Get handles GET /api/products/:id
func (h *ProductHandler) Get(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateProductID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var viewerID string
	if actor, ok := middleware.ActorFrom(c); ok {
		viewerID = actor.UserID
	}

	detail, err := h.svc.Get(c.Context(), id, viewerID)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(detail)
}

// Submit handles POST /api/products
func (h *ProductHandler) Submit(c fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var draft model.ProductDraft
	if err := c.Bind().JSON(&draft); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	p, err := h.svc.Submit(c.Context(), actor, draft)
	if err != nil {
		return respondError(c, err, "A product with this name already exists")
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}
