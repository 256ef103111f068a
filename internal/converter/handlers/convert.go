package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"svg2emblem/internal/converter/mapper"
	"svg2emblem/internal/converter/models"
)

// ============================================================
// Emblem Handler
// ============================================================

// Store хранит результаты конвертации.
type Store interface {
	Save(ctx context.Context, e *models.Emblem) error
	GetByID(ctx context.Context, id string) (*models.Emblem, error)
	List(ctx context.Context, limit int) ([]models.Emblem, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type EmblemHandler struct {
	converter *mapper.Converter
	renderer  *mapper.Renderer
	store     Store
}

func NewEmblemHandler(converter *mapper.Converter, renderer *mapper.Renderer, store Store) *EmblemHandler {
	return &EmblemHandler{
		converter: converter,
		renderer:  renderer,
		store:     store,
	}
}

type convertResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Count      int                `json:"count"`
	Warnings   int                `json:"warnings"`
	Primitives []models.Primitive `json:"primitives"`
	Log        []string           `json:"log"`
}

// Convert конвертирует SVG (multipart "file" или тело запроса) в примитивы
// эмблемы и сохраняет результат
func (h *EmblemHandler) Convert(c fiber.Ctx) error {
	log.Printf("[CONVERTER] Received request")
	log.Printf("[CONVERTER] Content-Type: %s", c.Get("Content-Type"))

	markup, name, err := readUpload(c)
	if err != nil {
		log.Printf("[CONVERTER] Upload error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}
	if strings.TrimSpace(markup) == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "svg required as multipart file or request body",
		})
	}

	log.Printf("[CONVERTER] Starting conversion, data size: %d bytes", len(markup))
	res := h.converter.ConvertWithReport(markup)

	emblem := &models.Emblem{
		ID:         uuid.NewString(),
		Name:       name,
		Source:     markup,
		Primitives: res.Primitives,
		Log:        res.Log,
		Warnings:   res.Warnings,
	}
	if err := h.store.Save(context.Background(), emblem); err != nil {
		log.Printf("[CONVERTER] Save error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store emblem"})
	}

	log.Printf("[CONVERTER] Conversion %s done: %d primitives, %d warnings", emblem.ID, len(res.Primitives), res.Warnings)
	return c.Status(http.StatusCreated).JSON(convertResponse{
		ID:         emblem.ID,
		Name:       emblem.Name,
		Count:      len(res.Primitives),
		Warnings:   res.Warnings,
		Primitives: res.Primitives,
		Log:        res.Log,
	})
}

// readUpload возвращает SVG и имя эмблемы. Поле multipart "file" важнее тела
// запроса; без имени берём имя файла.
func readUpload(c fiber.Ctx) (markup, name string, err error) {
	name = c.FormValue("name")
	if name == "" {
		name = c.Query("name")
	}

	if !strings.HasPrefix(c.Get("Content-Type"), fiber.MIMEMultipartForm) {
		return string(c.Body()), name, nil
	}

	file, err := c.FormFile("file")
	if err != nil {
		// multipart без файла считаем пустой загрузкой
		return "", name, nil
	}
	log.Printf("[CONVERTER] File received: %s, size: %d", file.Filename, file.Size)

	f, err := file.Open()
	if err != nil {
		return "", name, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", name, err
	}
	if name == "" {
		name = file.Filename
	}
	return string(data), name, nil
}

// Register регистрирует маршруты эмблем в app.
func (h *EmblemHandler) Register(app *fiber.App) {
	app.Get("/health/live", LivenessProbe)
	app.Get("/health/ready", h.ReadinessProbe)
	app.Get("/health/startup", StartupProbe)

	app.Get("/docs", SwaggerUI)
	app.Get("/docs/openapi.yaml", SwaggerSpec)

	app.Post("/convert", h.Convert)
	app.Post("/render", h.Render)

	app.Get("/emblems", h.List)
	app.Get("/emblems/:id", h.Get)
	app.Delete("/emblems/:id", h.Delete)
	app.Get("/emblems/:id/preview", h.Preview)
}
