package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/threadflow/internal/service"
)

type HistoryHandler struct {
	s service.HistoryService
}

func NewHistoryHandler(service service.HistoryService) *HistoryHandler {
	return &HistoryHandler{s: service}
}

func (h *HistoryHandler) ListHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	history, err := h.s.List(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list post history",
		})
	}

	return c.Status(fiber.StatusOK).JSON(history)
}
