package services

import (
	"log"

	"github.com/robfig/cron/v3"
)

// StartCleanupScheduler runs the cleanup sweeps hourly in-process, in
// addition to the HTTP cron trigger. Overlapping runs are skipped.
func StartCleanupScheduler(cleanup *CleanupService) *cron.Cron {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc("@hourly", func() {
		result := cleanup.Run()
		for _, e := range result.Errors {
			log.Printf("⚠️  scheduled cleanup error: %s", e)
		}
	})
	if err != nil {
		log.Fatalf("❌ Failed to register cleanup schedule: %v", err)
	}

	c.Start()
	log.Println("✅ Cleanup scheduler started (hourly)")
	return c
}
