package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"skyton-bot/internal/models"
)

type claimPair struct {
	userID int64
	taskID int64
}

type fakeTaskStore struct {
	mu     sync.Mutex
	tasks  map[int64]*models.Task
	claims map[claimPair]bool
	err    error
}

func newFakeTaskStore(tasks ...*models.Task) *fakeTaskStore {
	f := &fakeTaskStore{
		tasks:  make(map[int64]*models.Task),
		claims: make(map[claimPair]bool),
	}
	for _, task := range tasks {
		f.tasks[task.ID] = task
	}
	return f
}

func (f *fakeTaskStore) ListWithStatus(_ context.Context, userID int64) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Task
	for _, task := range f.tasks {
		cp := *task
		cp.Status = "available"
		if f.claims[claimPair{userID: userID, taskID: task.ID}] {
			cp.Status = "claimed"
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeTaskStore) GetTask(_ context.Context, taskID int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, nil
	}
	cp := *task
	return &cp, nil
}

func (f *fakeTaskStore) ClaimOnce(_ context.Context, userID, taskID int64, _ float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	pair := claimPair{userID: userID, taskID: taskID}
	if f.claims[pair] {
		return false, nil
	}
	f.claims[pair] = true
	return true, nil
}

func TestClaimTaskExactlyOnce(t *testing.T) {
	store := newFakeTaskStore(&models.Task{ID: 7, Title: "Join the channel", Reward: 25, Active: true})
	svc := NewTaskService(store, zap.NewNop())

	task, err := svc.ClaimTask(context.Background(), 222, 7)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if task.Reward != 25 {
		t.Fatalf("expected reward 25, got %v", task.Reward)
	}

	if _, err := svc.ClaimTask(context.Background(), 222, 7); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestClaimTaskUnknown(t *testing.T) {
	svc := NewTaskService(newFakeTaskStore(), zap.NewNop())

	if _, err := svc.ClaimTask(context.Background(), 222, 404); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestClaimTaskInactive(t *testing.T) {
	store := newFakeTaskStore(&models.Task{ID: 7, Title: "Retired", Reward: 25, Active: false})
	svc := NewTaskService(store, zap.NewNop())

	if _, err := svc.ClaimTask(context.Background(), 222, 7); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("inactive tasks must look absent, got %v", err)
	}
}

func TestListTasksMarksCompleted(t *testing.T) {
	store := newFakeTaskStore(
		&models.Task{ID: 1, Title: "A", Reward: 10, Active: true},
		&models.Task{ID: 2, Title: "B", Reward: 20, Active: true},
	)
	svc := NewTaskService(store, zap.NewNop())

	if _, err := svc.ClaimTask(context.Background(), 222, 1); err != nil {
		t.Fatalf("claim: %v", err)
	}

	tasks, err := svc.ListTasks(context.Background(), 222)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	byID := make(map[int64]string, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task.Status
	}
	if byID[1] != "claimed" || byID[2] != "available" {
		t.Fatalf("unexpected statuses: %v", byID)
	}
}
