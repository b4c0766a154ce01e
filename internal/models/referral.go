package models

import (
	"time"
)

// Referral records that ReferrerID was credited for bringing in InvitedUserID.
// The composite unique index is what makes crediting exactly-once.
type Referral struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	ReferrerID    int64     `gorm:"not null;uniqueIndex:idx_referrals_pair;index" json:"referrer_id"`
	InvitedUserID int64     `gorm:"not null;uniqueIndex:idx_referrals_pair" json:"invited_user_id"`
	RewardAmount  float64   `gorm:"not null" json:"reward_amount"`
	CreatedAt     time.Time `json:"created_at"`
}
