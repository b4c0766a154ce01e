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

type PaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

func (s *PaymentStore) ApplyOnce(ctx context.Context, payment *models.Payment) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "track_id"}},
			DoNothing: true,
		}).Create(payment)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Gateway redelivered a webhook we already applied.
			return nil
		}

		upd := tx.Model(&models.User{}).
			Where("telegram_id = ?", payment.UserID).
			Update("balance", gorm.Expr("balance + ?", payment.Amount))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return repository.ErrNotFound
		}

		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("apply payment %s: %w", payment.TrackID, err)
	}
	return applied, nil
}
