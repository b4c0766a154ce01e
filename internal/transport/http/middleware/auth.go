package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"
)

type ctxKey int

const initDataKey ctxKey = iota

// InitDataAuth validates the Mini App init data carried in the
// Authorization header ("tma <raw init data>") and stores the parsed
// payload in the request context.
func InitDataAuth(botToken string, expIn time.Duration, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "tma ")
			if !ok || raw == "" {
				http.Error(w, "Missing init data", http.StatusUnauthorized)
				return
			}

			if err := initdata.Validate(raw, botToken, expIn); err != nil {
				http.Error(w, "Invalid init data", http.StatusUnauthorized)
				return
			}

			data, err := initdata.Parse(raw)
			if err != nil {
				log.Warn("init data validated but unparseable", zap.Error(err))
				http.Error(w, "Invalid init data", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithInitData(r.Context(), data, raw)))
		})
	}
}

type authedLaunch struct {
	data initdata.InitData
	raw  string
}

// ContextWithInitData is exported for handler tests.
func ContextWithInitData(ctx context.Context, data initdata.InitData, raw string) context.Context {
	return context.WithValue(ctx, initDataKey, authedLaunch{data: data, raw: raw})
}

// InitDataFromContext returns the validated init data for the request.
func InitDataFromContext(r *http.Request) (initdata.InitData, bool) {
	v, ok := r.Context().Value(initDataKey).(authedLaunch)
	return v.data, ok
}

// RawInitDataFromContext returns the raw init data blob the client sent.
func RawInitDataFromContext(r *http.Request) (string, bool) {
	v, ok := r.Context().Value(initDataKey).(authedLaunch)
	return v.raw, ok
}
