package app

import (
	"context"
	"time"

	"github.com/insight-deck/core/internal/config"
	"github.com/insight-deck/core/internal/modules/admission"
	pkgcron "github.com/insight-deck/core/internal/pkg/cron"
	"go.uber.org/zap"
)

// registerCronJobs registers scheduled background jobs. The retention sweep
// job covers idle periods; busy traffic already triggers the sweep
// opportunistically through the engine itself.
func registerCronJobs(sched *pkgcron.Scheduler, engine *admission.Engine, cfg *config.AppConfig, logger *zap.Logger) {
	if !cfg.Admission.EnableCleanup {
		return
	}
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "retention_sweep",
		Description: "delete expired sessions, challenges and report events",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			if err := engine.Sweep(ctx); err != nil {
				cronLogger.Warn("retention sweep failed", zap.Error(err))
				return err
			}
			return nil
		},
	})
}
