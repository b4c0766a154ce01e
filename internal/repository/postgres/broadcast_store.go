package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"skyton-bot/internal/models"
)

type BroadcastStore struct {
	db *gorm.DB
}

func NewBroadcastStore(db *gorm.DB) *BroadcastStore {
	return &BroadcastStore{db: db}
}

func (s *BroadcastStore) Create(ctx context.Context, b *models.Broadcast) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create broadcast: %w", err)
	}
	return nil
}

func (s *BroadcastStore) Get(ctx context.Context, id string) (*models.Broadcast, error) {
	var b models.Broadcast
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get broadcast %s: %w", id, err)
	}
	return &b, nil
}

// ClaimPending uses a conditional status flip so two workers cannot pick up
// the same broadcast.
func (s *BroadcastStore) ClaimPending(ctx context.Context) (*models.Broadcast, error) {
	var b models.Broadcast
	err := s.db.WithContext(ctx).
		Where("status = ?", models.BroadcastStatusPending).
		Order("created_at").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending broadcast: %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&models.Broadcast{}).
		Where("id = ? AND status = ?", b.ID, models.BroadcastStatusPending).
		Update("status", models.BroadcastStatusRunning)
	if res.Error != nil {
		return nil, fmt.Errorf("claim broadcast %s: %w", b.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Another worker got there first.
		return nil, nil
	}

	b.Status = models.BroadcastStatusRunning
	return &b, nil
}

func (s *BroadcastStore) UpdateProgress(ctx context.Context, id string, sent, failed int64) error {
	err := s.db.WithContext(ctx).
		Model(&models.Broadcast{}).
		Where("id = ?", id).
		Updates(map[string]any{"sent": sent, "failed": failed}).Error
	if err != nil {
		return fmt.Errorf("update broadcast %s: %w", id, err)
	}
	return nil
}

func (s *BroadcastStore) Finish(ctx context.Context, id string, status string) error {
	err := s.db.WithContext(ctx).
		Model(&models.Broadcast{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("finish broadcast %s: %w", id, err)
	}
	return nil
}
