package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/D-Honoured1/Kamisoft-sub001/internal/handlers"
    "github.com/D-Honoured1/Kamisoft-sub001/internal/middleware"
)

func SetupPaymentRoutes(app *fiber.App) {
    payments := app.Group("/api/payments")

    // Client-facing payment initiation and verification
    payments.Post("/paystack/initialize", handlers.InitiatePaystackPayment)
    payments.Post("/verify", handlers.VerifyPaystackPayment)
    payments.Post("/stripe/checkout", handlers.CreateStripeCheckout)

    payments.Post("/nowpayments/generate", handlers.GenerateCryptoPayment)
    payments.Get("/nowpayments/generate", handlers.ListCryptoCurrencies)
    payments.Post("/crypto/verify", handlers.VerifyCryptoTransaction)
    payments.Get("/crypto/verify", handlers.GetCryptoVerificationStatus)

    // Provider callbacks; signature checks happen in the handlers
    webhooks := app.Group("/api/webhooks")
    webhooks.Post("/stripe", handlers.StripeWebhook)
    webhooks.Post("/nowpayments", handlers.NOWPaymentsWebhook)

    // Cleanup trigger: cron secret on GET, admin API key on POST
    cron := app.Group("/api/cron", middleware.CronAuth())
    cron.Get("/cleanup-payments", handlers.RunPaymentCleanup)
    cron.Post("/cleanup-payments", handlers.RunPaymentCleanup)
}
