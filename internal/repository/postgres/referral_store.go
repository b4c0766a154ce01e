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

type ReferralStore struct {
	db *gorm.DB
}

func NewReferralStore(db *gorm.DB) *ReferralStore {
	return &ReferralStore{db: db}
}

// CreditOnce is the one place that needs real write discipline: the ledger
// append and the counter bumps commit together or not at all, and the
// increments are expressions so concurrent credits of the same referrer
// cannot lose updates.
func (s *ReferralStore) CreditOnce(ctx context.Context, referrerID, invitedUserID int64, reward float64, spinBonus int64) (bool, error) {
	credited := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref := models.Referral{
			ReferrerID:    referrerID,
			InvitedUserID: invitedUserID,
			RewardAmount:  reward,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ref)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Pair already credited; nothing else to do.
			return nil
		}

		upd := tx.Model(&models.User{}).
			Where("telegram_id = ?", referrerID).
			Updates(map[string]any{
				"balance":        gorm.Expr("balance + ?", reward),
				"referral_count": gorm.Expr("referral_count + 1"),
				"spins":          gorm.Expr("spins + ?", spinBonus),
			})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			// Rolls back the ledger row too: no referrer, no credit.
			return repository.ErrNotFound
		}

		credited = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("credit referral %d<-%d: %w", referrerID, invitedUserID, err)
	}
	return credited, nil
}

func (s *ReferralStore) ListInvited(ctx context.Context, referrerID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Order("created_at").
		Pluck("invited_user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list invited for %d: %w", referrerID, err)
	}
	return ids, nil
}

func (s *ReferralStore) StatsFor(ctx context.Context, referrerID int64) (int64, float64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error
	if err != nil {
		return 0, 0, fmt.Errorf("referral count for %d: %w", referrerID, err)
	}

	var earned float64
	err = s.db.WithContext(ctx).
		Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Select("COALESCE(SUM(reward_amount), 0)").
		Scan(&earned).Error
	if err != nil {
		return 0, 0, fmt.Errorf("referral earnings for %d: %w", referrerID, err)
	}

	return count, earned, nil
}
