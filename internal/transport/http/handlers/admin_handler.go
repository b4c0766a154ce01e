package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
	"skyton-bot/internal/service"
	"skyton-bot/internal/transport/http/middleware"
)

type AdminHandler struct {
	auth       *service.AdminAuthService
	broadcasts repository.BroadcastStore
	users      repository.UserStore
	log        *zap.Logger
}

func NewAdminHandler(auth *service.AdminAuthService, broadcasts repository.BroadcastStore, users repository.UserStore, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		auth:       auth,
		broadcasts: broadcasts,
		users:      users,
		log:        log,
	}
}

// Login handles POST /admin/login. The Telegram identity from the verified
// init data is the only credential; allowlisted ids get a bearer token.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	data, ok := middleware.InitDataFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	token, err := h.auth.IssueToken(data.User.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotAdmin) {
			writeError(w, http.StatusForbidden, "Not an admin")
			return
		}
		h.log.Error("admin login failed", zap.Int64("user_id", data.User.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type createBroadcastRequest struct {
	Text string `json:"text"`
}

// CreateBroadcast handles POST /admin/broadcasts. The broadcast is queued
// for the background worker; delivery progress is polled via GetBroadcast.
func (h *AdminHandler) CreateBroadcast(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminIDFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	var req createBroadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Body must be JSON with a text field")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Broadcast text is empty")
		return
	}

	b := &models.Broadcast{
		ID:        uuid.New().String(),
		Text:      req.Text,
		Status:    models.BroadcastStatusPending,
		CreatedBy: adminID,
	}
	if err := h.broadcasts.Create(r.Context(), b); err != nil {
		h.log.Error("queue broadcast failed", zap.Int64("admin_id", adminID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Could not queue the broadcast, please retry")
		return
	}

	h.log.Info("broadcast queued", zap.String("broadcast_id", b.ID), zap.Int64("admin_id", adminID))
	writeJSON(w, http.StatusCreated, b)
}

// GetBroadcast handles GET /admin/broadcasts/{id}.
func (h *AdminHandler) GetBroadcast(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b, err := h.broadcasts.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Could not load the broadcast, please retry")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "No broadcast with this id")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.users.CountUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Could not load stats, please retry")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total_users": total})
}
