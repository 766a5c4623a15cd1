package models

import "time"

// ChallengeModel is a server-issued proof-of-work challenge. ConsumedAt
// transitions from NULL to a timestamp at most once; that conditional update
// is the exactly-once gate funding a budget grant.
type ChallengeModel struct {
	Base
	ExpiresAt  time.Time  `json:"expires_at"  gorm:"index;not null"`
	ConsumedAt *time.Time `json:"consumed_at" gorm:"index"`
	Material   string     `json:"-"           gorm:"type:text;not null"` // serialized PoW descriptor as sent to the client
	GrantUnits int        `json:"grant_units" gorm:"not null"`           // fixed at issuance time
}

func (ChallengeModel) TableName() string { return "challenges" }
