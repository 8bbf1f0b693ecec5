package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/D-Honoured1/Kamisoft-sub001/internal/handlers"
)

func SetupRoutes(app *fiber.App) {
    // API routes
    api := app.Group("/api")

    // Public catalog
    api.Get("/services", handlers.ListServices)
    api.Get("/services/:slug", handlers.GetServiceBySlug)

    // Public service requests
    api.Post("/requests", handlers.CreateServiceRequest)

    // Health check
    api.Get("/health", func(c *fiber.Ctx) error {
        return c.JSON(fiber.Map{
            "message": "Kamisoft API v1.0",
            "status":  "running",
        })
    })
}
