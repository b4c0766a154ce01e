package models

import (
	"time"
)

// Payment is one confirmed OxaPay transaction. TrackID is the gateway's id
// for the payment; the unique index makes webhook redelivery a no-op.
type Payment struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    int64   `gorm:"not null;index"`
	Amount    float64 `gorm:"not null"`
	Status    string  `gorm:"size:50;default:'pending'"`
	Type      string  `gorm:"size:50"`
	TrackID   string  `gorm:"size:255;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
