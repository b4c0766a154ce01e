package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"skyton-bot/internal/launch"
	"skyton-bot/internal/service"
	"skyton-bot/internal/transport/http/middleware"
)

type UserHandler struct {
	attribution *service.AttributionService
	log         *zap.Logger
}

func NewUserHandler(attribution *service.AttributionService, log *zap.Logger) *UserHandler {
	return &UserHandler{attribution: attribution, log: log}
}

// Resolve handles POST /api/user/resolve: find-or-create the launching user
// and apply referral attribution. Safe to call on every app load.
func (h *UserHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	data, ok := middleware.InitDataFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	raw, _ := middleware.RawInitDataFromContext(r)

	ctx := launch.Resolve(r.URL.Query(), raw)
	if ctx.User == nil {
		u := data.User
		ctx.User = &u
	}

	pu := service.PlatformUser{
		ID:            ctx.User.ID,
		Username:      ctx.User.Username,
		FirstName:     ctx.User.FirstName,
		LastName:      ctx.User.LastName,
		ProfilePicURL: ctx.User.PhotoURL,
	}

	user, err := h.attribution.ResolveUser(r.Context(), pu, ctx.ReferrerID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "Missing user identity")
			return
		}
		// Recoverable from the client's point of view: "no user loaded".
		writeError(w, http.StatusServiceUnavailable, "Could not load your profile, please retry")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Data handles GET /api/user/data: a plain profile read.
func (h *UserHandler) Data(w http.ResponseWriter, r *http.Request) {
	data, ok := middleware.InitDataFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	user, err := h.attribution.User(r.Context(), data.User.ID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Could not load your profile, please retry")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "Unknown user, resolve first")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
