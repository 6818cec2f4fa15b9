package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// LevelsHandler serves escalation levels and ticket categories.
type LevelsHandler struct {
	levels     *service.LevelService
	categories *service.CategoryService
}

// NewLevelsHandler constructs handler.
func NewLevelsHandler(levels *service.LevelService, categories *service.CategoryService) *LevelsHandler {
	return &LevelsHandler{levels: levels, categories: categories}
}

// ListLevels handles GET /levels.
func (h *LevelsHandler) ListLevels(c *fiber.Ctx) error {
	levels, err := h.levels.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.LevelResponse, 0, len(levels))
	for i := range levels {
		items = append(items, levelResponse(&levels[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteLevel handles DELETE /levels/:id.
func (h *LevelsHandler) DeleteLevel(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.levels.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListCategories handles GET /categories.
func (h *LevelsHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		items = append(items, dto.CategoryResponse{ID: cat.ID, Name: cat.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

func levelResponse(level *domain.EscalationLevel) dto.LevelResponse {
	return dto.LevelResponse{
		ID:           level.ID,
		Code:         level.Code,
		Name:         level.Name,
		SortOrder:    level.SortOrder,
		Capabilities: level.Capabilities.Names(),
		IsActive:     level.IsActive,
	}
}
