package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe: документ проекта загружен в память.
func (h *EditorHandler) ReadinessProbe(c fiber.Ctx) error {
	state := h.store.State()
	return c.JSON(fiber.Map{
		"status":    "ready",
		"complexes": len(state.Complexes),
	})
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
