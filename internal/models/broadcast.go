package models

import (
	"time"
)

const (
	BroadcastStatusPending = "pending"
	BroadcastStatusRunning = "running"
	BroadcastStatusDone    = "done"
	BroadcastStatusFailed  = "failed"
)

type Broadcast struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Text      string `gorm:"not null" json:"text"`
	Status    string `gorm:"size:20;not null;default:'pending'" json:"status"`
	Sent      int64  `gorm:"not null;default:0" json:"sent"`
	Failed    int64  `gorm:"not null;default:0" json:"failed"`
	CreatedBy int64  `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
