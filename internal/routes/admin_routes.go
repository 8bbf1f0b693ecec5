package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/D-Honoured1/Kamisoft-sub001/internal/handlers"
    "github.com/D-Honoured1/Kamisoft-sub001/internal/middleware"
)

func SetupAdminRoutes(app *fiber.App) {
    adminHandler := handlers.NewAdminHandler()

    adminAuth := app.Group("/api/admin/auth")

    adminAuth.Post("/login", adminHandler.AdminLogin)

    adminAuth.Post("/initialize", adminHandler.InitializeFirstAdmin)

    // Protected admin routes
    admin := app.Group("/api/admin", middleware.Protected(), middleware.AdminOnly())

    // Admin profile
    admin.Get("/profile", adminHandler.GetAdminProfile)

    // Dashboard
    admin.Get("/dashboard", adminHandler.GetDashboardStats)

    // Service requests
    admin.Get("/requests", handlers.GetAllRequests)
    admin.Get("/requests/:id", handlers.GetRequestByID)
    admin.Post("/requests/:id/approve", handlers.ApproveRequest)
    admin.Post("/requests/:id/payment-link", handlers.IssuePaymentLink)

    // Payment management
    admin.Get("/payments", handlers.GetAllPayments)
    admin.Get("/payments/:id", handlers.GetPaymentByID)
    admin.Post("/payments/manual", handlers.RecordManualPayment)
    admin.Post("/payments/:id/approve", handlers.ApprovePayment)
    admin.Get("/payments/:id/approve", handlers.CheckPaymentApprovable)
    admin.Delete("/payments/:id/delete", handlers.DeletePayment)
    admin.Get("/payments/:id/delete", handlers.CheckPaymentDeletable)

    // Payment links
    admin.Patch("/payment-links/:requestId/deactivate", handlers.DeactivatePaymentLink)
    admin.Get("/payment-links/:requestId", handlers.GetPaymentLinkStatus)

    // Catalog management
    admin.Post("/services", handlers.CreateService)
    admin.Put("/services/:id", handlers.UpdateService)
    admin.Delete("/services/:id", handlers.DeleteService)
    admin.Post("/services/:id/image", handlers.UploadServiceImage)
}
