package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RunPaymentCleanup triggers the cleanup sweeps. Auth is handled by the
// CronAuth middleware: the cron secret on GET, the admin API key on POST.
func RunPaymentCleanup(c *fiber.Ctx) error {
	// Sweep failures are reported in the body, not the status code, so the
	// cron caller always sees what each sweep managed to do.
	result := cleanupService.Run()
	return c.JSON(result)
}
