package models

import "time"

// SessionModel is an anonymous budget-holding session addressed purely by its
// opaque bearer token. Rows are created only by a successful challenge grant
// and removed only by the retention sweep.
type SessionModel struct {
	Base
	Token               string    `json:"token"                 gorm:"uniqueIndex;size:64;not null"`
	LastUsedAt          time.Time `json:"last_used_at"          gorm:"index;not null"`
	BudgetUnits         int       `json:"budget_units"          gorm:"not null"`
	BudgetExpiresAt     time.Time `json:"budget_expires_at"     gorm:"not null"`
	CreditsUsedLifetime int       `json:"credits_used_lifetime" gorm:"not null"`
}

func (SessionModel) TableName() string { return "sessions" }
