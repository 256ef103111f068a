package handlers

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"svg2emblem/internal/converter/models"
)

// ============================================================
// Render Handler
// ============================================================

// Render рисует JSON массив примитивов в превью SVG (по умолчанию) или PNG
func (h *EmblemHandler) Render(c fiber.Ctx) error {
	log.Printf("[RENDER] Received request")
	log.Printf("[RENDER] Content-Length: %d", len(c.Body()))

	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "body required"})
	}

	var primitives []models.Primitive
	if err := json.Unmarshal(c.Body(), &primitives); err != nil {
		log.Printf("[RENDER] Decode error: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}

	return h.sendPreview(c, primitives)
}

func (h *EmblemHandler) sendPreview(c fiber.Ctx, primitives []models.Primitive) error {
	switch format := c.Query("format", "svg"); format {
	case "svg":
		out, err := h.renderer.Render(primitives)
		if err != nil {
			log.Printf("[RENDER] Render error: %v", err)
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		c.Set("Content-Type", "image/svg+xml")
		return c.SendString(out)

	case "png":
		var buf bytes.Buffer
		if err := h.renderer.RenderPNG(&buf, primitives); err != nil {
			log.Printf("[RENDER] Render error: %v", err)
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		c.Set("Content-Type", "image/png")
		return c.Send(buf.Bytes())

	default:
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "format must be svg or png"})
	}
}
