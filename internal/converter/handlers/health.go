package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessProbe проверяет готовность: хранилище эмблем должно отвечать
func (h *EmblemHandler) ReadinessProbe(c fiber.Ctx) error {
	if err := h.store.Ping(context.Background()); err != nil {
		log.Printf("[HEALTH] Store unavailable: %v", err)
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "started"})
}
