package models

import (
	"time"
)

type Task struct {
	ID          int64   `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Description string  `gorm:"size:512" json:"description"`
	TaskType    string  `gorm:"size:50;not null" json:"task_type"`
	Reward      float64 `gorm:"not null" json:"reward"`
	Link        *string `gorm:"size:512" json:"link,omitempty"`
	Active      bool    `gorm:"not null;default:true" json:"-"`
	CreatedAt   time.Time `json:"-"`

	// Filled per request, not stored.
	Status string `gorm:"-" json:"status,omitempty"`
}

// CompletedTask is the claim ledger; one row per (user, task).
type CompletedTask struct {
	UserID    int64 `gorm:"not null;uniqueIndex:idx_completed_tasks_pair"`
	TaskID    int64 `gorm:"not null;uniqueIndex:idx_completed_tasks_pair"`
	CreatedAt time.Time
}
