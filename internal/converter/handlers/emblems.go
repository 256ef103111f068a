package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"svg2emblem/internal/converter/models"
	"svg2emblem/internal/converter/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// List отдаёт сохранённые эмблемы, новые первыми. ?limit= ограничивает число.
func (h *EmblemHandler) List(c fiber.Ctx) error {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxListLimit)
	}

	emblems, err := h.store.List(context.Background(), limit)
	if err != nil {
		log.Printf("[EMBLEMS] List error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list emblems"})
	}
	return c.JSON(emblems)
}

func (h *EmblemHandler) Get(c fiber.Ctx) error {
	emblem, status, err := h.lookup(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(emblem)
}

func (h *EmblemHandler) Delete(c fiber.Ctx) error {
	err := h.store.Delete(context.Background(), c.Params("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "emblem not found"})
	case err != nil:
		log.Printf("[EMBLEMS] Delete error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete emblem"})
	}
	return c.SendStatus(http.StatusNoContent)
}

// Preview рисует сохранённую эмблему; ?format= svg (по умолчанию) или png.
func (h *EmblemHandler) Preview(c fiber.Ctx) error {
	emblem, status, err := h.lookup(c.Params("id"))
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return h.sendPreview(c, emblem.Primitives)
}

// lookup загружает эмблему, при неудаче возвращает HTTP статус и ошибку для
// клиента.
func (h *EmblemHandler) lookup(id string) (*models.Emblem, int, error) {
	emblem, err := h.store.GetByID(context.Background(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, http.StatusNotFound, errors.New("emblem not found")
	case err != nil:
		log.Printf("[EMBLEMS] Get error: %v", err)
		return nil, http.StatusInternalServerError, errors.New("failed to load emblem")
	}
	return emblem, http.StatusOK, nil
}
