// Command purge deletes diary entries older than the 30 day window. Run it
// daily from cron.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/pabloERSH/nutrition-service/config"
	"github.com/pabloERSH/nutrition-service/observability"
	"github.com/pabloERSH/nutrition-service/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := observability.NewLogger(cfg)

	db, err := config.OpenDB(cfg)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := services.NewPurgeService(db, cfg.Location).PurgeOlderThan(ctx, services.WindowDays); err != nil {
		logger.Error("purge failed", "error", err)
		cancel()
		os.Exit(1)
	}
}
