// Package scheduler runs the recurring billing trigger. It only decides
// *when* to invoke monthly generation; the ledger's unique-constraint
// idempotency makes overlapping scheduler and manual runs safe.
package scheduler

import (
	"context"
	"time"

	"boardinghouse-service/internal/ledger"
	"boardinghouse-service/pkg/config"
	"boardinghouse-service/pkg/logger"
	"boardinghouse-service/prometheus"

	"go.uber.org/zap"
)

// Start launches the background ticker that triggers monthly obligation
// generation once per day at the configured hour.
func Start(led *ledger.Ledger, cfg *config.SchedulerConfig) {
	if !cfg.Enabled {
		logger.GetLogger().Info("Billing scheduler disabled")
		return
	}

	go func() {
		log := logger.GetLogger()
		log.Info("Billing scheduler started", zap.Int("hour", cfg.Hour))

		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		var lastRun time.Time
		for range ticker.C {
			now := time.Now()
			if now.Hour() != cfg.Hour {
				continue
			}
			if lastRun.Year() == now.Year() && lastRun.YearDay() == now.YearDay() {
				continue
			}
			lastRun = now

			created, err := led.GenerateMonthlyObligations(context.Background(), now)
			if err != nil {
				log.Error("Scheduled obligation generation failed", zap.Error(err))
				prometheus.RecordSchedulerRun("error")
				continue
			}

			log.Info("Scheduled obligation generation completed",
				zap.Int("created", len(created)),
				zap.String("month", now.Format("2006-01")))
			prometheus.RecordSchedulerRun("success")
		}
	}()
}
