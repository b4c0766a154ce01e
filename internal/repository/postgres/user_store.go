package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("telegram_id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// CreateIfAbsent relies on the primary key conflict target, so two
// concurrent onboarding calls for the same id produce exactly one row.
func (s *UserStore) CreateIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return false, fmt.Errorf("create user %d: %w", user.TelegramID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", id).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("update profile %d: %w", id, err)
	}
	return nil
}

func (s *UserStore) SetInvitedBy(ctx context.Context, id, referrerID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ? AND invited_by IS NULL", id).
		Update("invited_by", referrerID)
	if res.Error != nil {
		return false, fmt.Errorf("set invited_by %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *UserStore) AddBalance(ctx context.Context, id int64, amount float64) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("add balance %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *UserStore) TopBalances(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("balance DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("top balances: %w", err)
	}
	return users, nil
}

func (s *UserStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *UserStore) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id > ?", afterID).
		Order("telegram_id").
		Limit(limit).
		Pluck("telegram_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	return ids, nil
}
