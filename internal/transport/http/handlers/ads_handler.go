package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"skyton-bot/internal/service"
	"skyton-bot/internal/transport/http/middleware"
)

type AdsHandler struct {
	ads *service.AdRewardService
	log *zap.Logger
}

func NewAdsHandler(ads *service.AdRewardService, log *zap.Logger) *AdsHandler {
	return &AdsHandler{ads: ads, log: log}
}

// Claim handles POST /api/ads/claim, called after the client finished an ad.
func (h *AdsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	data, ok := middleware.InitDataFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	amount, err := h.ads.ClaimAdReward(r.Context(), data.User.ID)
	switch {
	case errors.Is(err, service.ErrAdLimitReached):
		writeError(w, http.StatusTooManyRequests, "Daily ad reward limit reached")
	case err != nil:
		h.log.Error("ad claim failed", zap.Int64("user_id", data.User.ID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Could not credit the reward, please retry")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"reward": amount})
	}
}
