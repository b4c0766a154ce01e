package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"skyton-bot/internal/service"
	"skyton-bot/internal/transport/http/middleware"
)

type TaskHandler struct {
	tasks *service.TaskService
	log   *zap.Logger
}

func NewTaskHandler(tasks *service.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	data, ok := middleware.InitDataFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	tasks, err := h.tasks.ListTasks(r.Context(), data.User.ID)
	if err != nil {
		h.log.Error("list tasks failed", zap.Int64("user_id", data.User.ID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Could not load tasks, please retry")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Claim handles POST /api/tasks/claim?task-id=N.
func (h *TaskHandler) Claim(w http.ResponseWriter, r *http.Request) {
	data, ok := middleware.InitDataFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	taskID, err := strconv.ParseInt(r.URL.Query().Get("task-id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "task-id must be numeric")
		return
	}

	task, err := h.tasks.ClaimTask(r.Context(), data.User.ID, taskID)
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusBadRequest, "No task with this id")
	case errors.Is(err, service.ErrAlreadyClaimed):
		writeError(w, http.StatusBadRequest, "Reward already claimed")
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, "Could not claim the task, please retry")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"task_id": task.ID,
			"reward":  task.Reward,
		})
	}
}
