package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"skyton-bot/internal/models"
)

type ConfigStore struct {
	db *gorm.DB
}

func NewConfigStore(db *gorm.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

func (s *ConfigStore) GetAppConfig(ctx context.Context) (*models.AppConfig, error) {
	cfg := models.AppConfig{ID: 1}
	err := s.db.WithContext(ctx).FirstOrCreate(&cfg, models.AppConfig{ID: 1}).Error
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	return &cfg, nil
}
