package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"skyton-bot/internal/payment"
	"skyton-bot/internal/repository"
	"skyton-bot/internal/service"
	"skyton-bot/internal/transport/http/handlers"
	"skyton-bot/internal/transport/http/middleware"
)

const maxConcurrentRequests = 200

// RouterDeps carries everything the HTTP surface needs. The bot and the
// workers share the same services; only the transport differs.
type RouterDeps struct {
	Attribution *service.AttributionService
	Tasks       *service.TaskService
	Stats       *service.StatsService
	Ads         *service.AdRewardService
	Admins      *service.AdminAuthService
	Broadcasts  repository.BroadcastStore
	Users       repository.UserStore
	Payments    *payment.Handler

	BotToken      string
	InitDataTTL   time.Duration
	AllowedOrigin string
	Log           *zap.Logger
}

func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.CORS(deps.AllowedOrigin))
	r.Use(middleware.MaxInFlight(maxConcurrentRequests))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	// The gateway signs its own requests; no init data here.
	r.HandleFunc("/payments/oxapay/webhook", deps.Payments.HandleWebhook).Methods(http.MethodPost)

	initAuth := middleware.InitDataAuth(deps.BotToken, deps.InitDataTTL, deps.Log)
	limiter := middleware.NewRateLimiter(5, 10)

	userHandler := handlers.NewUserHandler(deps.Attribution, deps.Log)
	taskHandler := handlers.NewTaskHandler(deps.Tasks, deps.Log)
	statsHandler := handlers.NewStatsHandler(deps.Stats, deps.Log)
	adsHandler := handlers.NewAdsHandler(deps.Ads, deps.Log)
	paymentHandler := handlers.NewPaymentHandler(deps.Payments, deps.Log)
	adminHandler := handlers.NewAdminHandler(deps.Admins, deps.Broadcasts, deps.Users, deps.Log)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(initAuth)
	api.Use(limiter.Middleware)
	api.HandleFunc("/user/resolve", userHandler.Resolve).Methods(http.MethodPost)
	api.HandleFunc("/user/data", userHandler.Data).Methods(http.MethodGet)
	api.HandleFunc("/tasks", taskHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/tasks/claim", taskHandler.Claim).Methods(http.MethodPost)
	api.HandleFunc("/referrals/stats", statsHandler.Referrals).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", statsHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/ads/claim", adsHandler.Claim).Methods(http.MethodPost)
	api.HandleFunc("/payments/invoice", paymentHandler.CreateInvoice).Methods(http.MethodPost)

	// Login proves identity with init data, the rest of the admin surface
	// runs on the issued bearer token.
	r.Handle("/admin/login", initAuth(http.HandlerFunc(adminHandler.Login))).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth(deps.Admins))
	admin.HandleFunc("/broadcasts", adminHandler.CreateBroadcast).Methods(http.MethodPost)
	admin.HandleFunc("/broadcasts/{id}", adminHandler.GetBroadcast).Methods(http.MethodGet)
	admin.HandleFunc("/stats", adminHandler.Stats).Methods(http.MethodGet)

	return r
}
