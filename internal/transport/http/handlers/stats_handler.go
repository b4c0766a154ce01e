package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"skyton-bot/internal/service"
	"skyton-bot/internal/transport/http/middleware"
)

type StatsHandler struct {
	stats *service.StatsService
	log   *zap.Logger
}

func NewStatsHandler(stats *service.StatsService, log *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, log: log}
}

// Referrals handles GET /api/referrals/stats.
func (h *StatsHandler) Referrals(w http.ResponseWriter, r *http.Request) {
	data, ok := middleware.InitDataFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	stats, err := h.stats.ReferralStats(r.Context(), data.User.ID)
	if err != nil {
		h.log.Error("referral stats failed", zap.Int64("user_id", data.User.ID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Could not load stats, please retry")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Leaderboard handles GET /api/leaderboard.
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.stats.Leaderboard(r.Context())
	if err != nil {
		h.log.Error("leaderboard failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Could not load leaderboard, please retry")
		return
	}
	writeJSON(w, http.StatusOK, board)
}
