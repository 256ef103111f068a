package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"svg2emblem/internal/common/config"
	"svg2emblem/internal/common/middleware"
	"svg2emblem/internal/converter/diag"
	"svg2emblem/internal/converter/handlers"
	"svg2emblem/internal/converter/mapper"
	"svg2emblem/internal/converter/repository"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Converter Service
// ============================================================

func main() {
	cfg := config.Load()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background(), cfg.MigrationsPath); err != nil {
		log.Fatalf("init db: %v", err)
	}

	converter := mapper.New(mapper.Options{
		MaxItems:        cfg.Converter.MaxItems,
		MaxSize:         cfg.Converter.MaxSize,
		CircleTolerance: cfg.Converter.CircleTolerance,
	}, conversionSink(cfg.LogFormat))
	emblemHandler := handlers.NewEmblemHandler(converter, mapper.NewRenderer(), repo)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Emblem Converter Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Routes
	// ============================================================

	emblemHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Emblem Converter Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// conversionSink выбирает, куда пишутся сообщения конвертации.
func conversionSink(format string) diag.Sink {
	if format == "json" {
		return diag.SlogSink(slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "converter"))
	}
	return diag.StdSink("CONVERTER")
}
