package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
)

var (
	ErrTaskNotFound   = errors.New("task does not exist")
	ErrAlreadyClaimed = errors.New("task reward already claimed")
)

type TaskService struct {
	tasks repository.TaskStore
	log   *zap.Logger
}

func NewTaskService(tasks repository.TaskStore, log *zap.Logger) *TaskService {
	return &TaskService{tasks: tasks, log: log}
}

func (s *TaskService) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.tasks.ListWithStatus(ctx, userID)
}

// ClaimTask credits the task reward at most once per (user, task).
func (s *TaskService) ClaimTask(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("claim task %d: %w", taskID, err)
	}
	if task == nil || !task.Active {
		return nil, ErrTaskNotFound
	}

	claimed, err := s.tasks.ClaimOnce(ctx, userID, taskID, task.Reward)
	if err != nil {
		s.log.Error("claim task failed",
			zap.Int64("user_id", userID),
			zap.Int64("task_id", taskID),
			zap.Error(err))
		return nil, fmt.Errorf("claim task %d: %w", taskID, err)
	}
	if !claimed {
		return nil, ErrAlreadyClaimed
	}

	s.log.Info("task claimed",
		zap.Int64("user_id", userID),
		zap.Int64("task_id", taskID),
		zap.Float64("reward", task.Reward))
	return task, nil
}
