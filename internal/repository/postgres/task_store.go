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

type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) ListWithStatus(ctx context.Context, userID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Table("tasks").
		Select("tasks.*, CASE WHEN completed_tasks.task_id IS NOT NULL THEN 'claimed' ELSE 'available' END AS status").
		Joins("LEFT JOIN completed_tasks ON completed_tasks.task_id = tasks.id AND completed_tasks.user_id = ?", userID).
		Where("tasks.active").
		Order("tasks.id").
		Scan(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks for %d: %w", userID, err)
	}
	return tasks, nil
}

func (s *TaskStore) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", taskID, err)
	}
	return &task, nil
}

func (s *TaskStore) ClaimOnce(ctx context.Context, userID, taskID int64, reward float64) (bool, error) {
	claimed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.CompletedTask{UserID: userID, TaskID: taskID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		upd := tx.Model(&models.User{}).
			Where("telegram_id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", reward))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return repository.ErrNotFound
		}

		claimed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("claim task %d by %d: %w", taskID, userID, err)
	}
	return claimed, nil
}
