package models

import "time"

// ReportEventModel is an append-only record of a completed report download,
// used to compute the rolling daily quota. Never updated; deleted only by
// the retention sweep.
type ReportEventModel struct {
	Base
	SessionToken string    `json:"session_token" gorm:"index;size:64;not null"`
	OccurredAt   time.Time `json:"occurred_at"   gorm:"index;not null"`
}

func (ReportEventModel) TableName() string { return "report_events" }
