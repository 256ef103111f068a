package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// ============================================================
// CORS Middleware
// ============================================================

// CORS разрешает редактору эмблем вызывать сервис с любого origin.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	})
}
