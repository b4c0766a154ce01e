package models

import (
	"time"
)

// AppConfig is a single-row table of admin-tunable thresholds. It is read
// through settings.Cache, never directly from request handlers.
type AppConfig struct {
	ID             uint    `gorm:"primaryKey" json:"-"`
	AdRewardAmount float64 `gorm:"not null;default:10" json:"ad_reward_amount"`
	AdDailyLimit   int64   `gorm:"not null;default:20" json:"ad_daily_limit"`
	MinWithdrawal  float64 `gorm:"not null;default:500" json:"min_withdrawal"`
	UpdatedAt      time.Time `json:"-"`
}
