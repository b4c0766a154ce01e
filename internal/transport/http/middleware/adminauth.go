package middleware

import (
	"context"
	"net/http"
	"strings"

	"skyton-bot/internal/service"
)

const adminIDKey ctxKey = 100

// AdminAuth guards the admin endpoints with the bearer JWT issued by
// AdminAuthService.
func AdminAuth(admins *service.AdminAuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				http.Error(w, "Missing token", http.StatusUnauthorized)
				return
			}

			adminID, err := admins.VerifyToken(token)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminIDFromContext returns the Telegram id of the authenticated admin.
func AdminIDFromContext(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(adminIDKey).(int64)
	return id, ok
}
