package repository

import (
	"context"
	"errors"

	"skyton-bot/internal/models"
)

// ErrNotFound is returned when a write targeted a row that does not exist.
// Reads report absence as (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// CreateIfAbsent inserts the user unless the id is already taken.
	// Reports whether this call created the row.
	CreateIfAbsent(ctx context.Context, user *models.User) (bool, error)
	UpdateProfile(ctx context.Context, id int64, fields map[string]any) error
	// SetInvitedBy records the referrer only when no referrer is set yet.
	// Reports whether the write landed.
	SetInvitedBy(ctx context.Context, id, referrerID int64) (bool, error)
	AddBalance(ctx context.Context, id int64, amount float64) error
	TopBalances(ctx context.Context, limit int) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	// ListIDs pages through user ids in ascending order, for broadcasts.
	ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
}

type ReferralStore interface {
	// CreditOnce appends the (referrer, invited) pair and bumps the
	// referrer's counters in one transaction. A pair that already exists is
	// a no-op with credited=false. A missing referrer row is ErrNotFound.
	CreditOnce(ctx context.Context, referrerID, invitedUserID int64, reward float64, spinBonus int64) (credited bool, err error)
	ListInvited(ctx context.Context, referrerID int64) ([]int64, error)
	StatsFor(ctx context.Context, referrerID int64) (count int64, earned float64, err error)
}

type TaskStore interface {
	ListWithStatus(ctx context.Context, userID int64) ([]models.Task, error)
	GetTask(ctx context.Context, taskID int64) (*models.Task, error)
	// ClaimOnce records the completion and credits the reward atomically;
	// an existing claim is a no-op with claimed=false.
	ClaimOnce(ctx context.Context, userID, taskID int64, reward float64) (claimed bool, err error)
}

type PaymentStore interface {
	// ApplyOnce records the payment and credits the user's balance in one
	// transaction, keyed by the gateway track id. A track id that was
	// already applied is a no-op with applied=false.
	ApplyOnce(ctx context.Context, payment *models.Payment) (applied bool, err error)
}

type BroadcastStore interface {
	Create(ctx context.Context, b *models.Broadcast) error
	Get(ctx context.Context, id string) (*models.Broadcast, error)
	// ClaimPending moves the oldest pending broadcast to running and returns
	// it, or (nil, nil) when there is nothing to do.
	ClaimPending(ctx context.Context) (*models.Broadcast, error)
	UpdateProgress(ctx context.Context, id string, sent, failed int64) error
	Finish(ctx context.Context, id string, status string) error
}

type ConfigStore interface {
	// GetAppConfig returns the singleton config row, creating it with
	// defaults on first use.
	GetAppConfig(ctx context.Context) (*models.AppConfig, error)
}
