package admission

import (
	"context"

	"github.com/insight-deck/core/internal/models"
	"go.uber.org/zap"
)

// maybeSweep runs the retention sweep inline when cleanup is enabled and the
// minimum interval has elapsed. Best effort: a failed sweep never fails the
// request that triggered it.
func (e *Engine) maybeSweep() {
	if !e.enableCleanup {
		return
	}

	now := e.now()
	e.sweepMu.Lock()
	due := e.lastSweep.IsZero() || now.Sub(e.lastSweep) >= sweepMinInterval
	if due {
		e.lastSweep = now
	}
	e.sweepMu.Unlock()
	if !due {
		return
	}

	if err := e.Sweep(context.Background()); err != nil {
		e.log.Warn("retention sweep failed", zap.Error(err))
	}
}

// Sweep deletes expired ledger rows: sessions idle past retention, challenges
// past retention (measured from issuance or, once consumed, from
// consumption), and report events outside the quota window. Idempotent and
// safe to rerun after interruption.
func (e *Engine) Sweep(ctx context.Context) error {
	now := e.now()
	db := e.db.WithContext(ctx)

	sessions := db.
		Where("last_used_at < ?", now.Add(-SessionRetention)).
		Delete(&models.SessionModel{})
	if sessions.Error != nil {
		return sessions.Error
	}

	cutoff := now.Add(-ChallengeRetention)
	challenges := db.
		Where("(consumed_at IS NULL AND created_at < ?) OR (consumed_at IS NOT NULL AND consumed_at < ?)", cutoff, cutoff).
		Delete(&models.ChallengeModel{})
	if challenges.Error != nil {
		return challenges.Error
	}

	events := db.
		Where("occurred_at < ?", now.Add(-QuotaWindow)).
		Delete(&models.ReportEventModel{})
	if events.Error != nil {
		return events.Error
	}

	if sessions.RowsAffected+challenges.RowsAffected+events.RowsAffected > 0 {
		e.log.Info("retention sweep",
			zap.Int64("sessions", sessions.RowsAffected),
			zap.Int64("challenges", challenges.RowsAffected),
			zap.Int64("report_events", events.RowsAffected),
		)
	}
	return nil
}
