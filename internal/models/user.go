package models

import (
	"time"
)

// User is keyed by the Telegram account id. InvitedBy is set at most once,
// during onboarding; the referred-users set lives in the referrals table.
type User struct {
	TelegramID    int64     `gorm:"primaryKey;autoIncrement:false" json:"telegram_id"`
	Username      string    `gorm:"size:255" json:"username"`
	FirstName     string    `gorm:"size:255" json:"first_name"`
	LastName      string    `gorm:"size:255" json:"last_name"`
	ProfilePicURL string    `gorm:"size:512" json:"profile_pic_url"`
	InvitedBy     *int64    `gorm:"index" json:"invited_by,omitempty"`
	ReferralCount int64     `gorm:"not null;default:0" json:"referral_count"`
	Balance       float64   `gorm:"not null;default:0" json:"balance"`
	Spins         int64     `gorm:"not null;default:0" json:"spins"`
	JoinedAt      time.Time `json:"joined_at"`
	UpdatedAt     time.Time `json:"-"`
}
