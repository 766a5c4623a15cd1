package admission

import (
	"time"

	"github.com/insight-deck/core/internal/models"
)

// QuotaResult is the outcome of a daily report quota check.
type QuotaResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// CheckReportQuota counts the session's report downloads in the trailing
// window. It must run, and deny, before the budget check so an exhausted
// client sees daily_limit_exceeded rather than a challenge. Anonymous traffic
// passes untouched: the quota is keyed purely by session.
func (e *Engine) CheckReportQuota(bearer string) (*QuotaResult, error) {
	token, hasToken := ParseBearer(bearer)
	if !hasToken {
		return &QuotaResult{Allowed: true, Remaining: e.dailyReportLimit}, nil
	}

	now := e.now()
	since := now.Add(-QuotaWindow)

	var count int64
	if err := e.db.Model(&models.ReportEventModel{}).
		Where("session_token = ? AND occurred_at > ?", token, since).
		Count(&count).Error; err != nil {
		return nil, err
	}

	remaining := e.dailyReportLimit - int(count)
	if remaining > 0 {
		return &QuotaResult{Allowed: true, Remaining: remaining}, nil
	}

	var oldest models.ReportEventModel
	retryAfter := QuotaWindow
	err := e.db.
		Where("session_token = ? AND occurred_at > ?", token, since).
		Order("occurred_at ASC").
		First(&oldest).Error
	if err == nil {
		retryAfter = oldest.OccurredAt.Add(QuotaWindow).Sub(now)
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &QuotaResult{Remaining: 0, RetryAfter: retryAfter}, nil
}

// RecordReportDownload appends a download event and returns the remaining
// count. Callers invoke it only after the gated operation fully succeeded;
// failed downloads never consume quota.
func (e *Engine) RecordReportDownload(bearer string) (int, error) {
	token, hasToken := ParseBearer(bearer)
	if !hasToken {
		return e.dailyReportLimit, nil
	}

	now := e.now()
	row := models.ReportEventModel{
		SessionToken: token,
		OccurredAt:   now,
	}
	if err := e.db.Create(&row).Error; err != nil {
		return 0, err
	}

	var count int64
	if err := e.db.Model(&models.ReportEventModel{}).
		Where("session_token = ? AND occurred_at > ?", token, now.Add(-QuotaWindow)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	remaining := e.dailyReportLimit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
