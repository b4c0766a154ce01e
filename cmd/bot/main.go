package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"

	"skyton-bot/internal/bot"
	"skyton-bot/internal/config"
	"skyton-bot/internal/database"
	"skyton-bot/internal/notify"
	"skyton-bot/internal/payment"
	"skyton-bot/internal/repository/postgres"
	"skyton-bot/internal/service"
	"skyton-bot/internal/settings"
	transport "skyton-bot/internal/transport/http"
	"skyton-bot/internal/worker"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.LoadConfig()
	if cfg.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()

	users := postgres.NewUserStore(db)
	referrals := postgres.NewReferralStore(db)
	tasks := postgres.NewTaskStore(db)
	payments := postgres.NewPaymentStore(db)
	broadcasts := postgres.NewBroadcastStore(db)
	configs := postgres.NewConfigStore(db)

	admins := service.NewAdminAuthService(cfg.AdminJWTSecret, cfg.AdminIDs, cfg.AdminTokenTTL)
	statsService := service.NewStatsService(users, referrals, rdb, cfg.LeaderboardTTL, log)
	taskService := service.NewTaskService(tasks, log)
	settingsCache := settings.NewCache(configs, rdb, cfg.SettingsTTL, log)
	adService := service.NewAdRewardService(users, rdb, settingsCache, log)

	// One telego instance shared by the bot handlers, the notifier and the
	// broadcast worker.
	instance, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		log.Fatal("bot init failed", zap.Error(err))
	}

	notifier := notify.New(instance, cfg.AdminChatID, log)
	defer notifier.Close()

	rewards := service.NewRewardService(referrals, notifier, cfg.ReferralReward, cfg.ReferralSpinBonus, log)
	attribution := service.NewAttributionService(users, rewards, log)
	tgBot := bot.NewBot(instance, attribution, statsService, broadcasts, users, admins, cfg.MiniAppURL, log)

	oxapay := payment.NewClient(cfg.OxaPayMerchantKey, cfg.OxaPayAPIURL)
	paymentHandler := payment.NewHandler(payments, oxapay, notifier, cfg.OxaPayCallbackURL, log)

	router := transport.NewRouter(transport.RouterDeps{
		Attribution:   attribution,
		Tasks:         taskService,
		Stats:         statsService,
		Ads:           adService,
		Admins:        admins,
		Broadcasts:    broadcasts,
		Users:         users,
		Payments:      paymentHandler,
		BotToken:      cfg.BotToken,
		InitDataTTL:   cfg.InitDataTTL,
		AllowedOrigin: cfg.AllowedOrigin,
		Log:           log,
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broadcaster := worker.NewBroadcaster(broadcasts, users, tgBot.Instance, notifier, log)
	go broadcaster.Start(ctx)

	go func() {
		log.Info("bot long polling started")
		if err := tgBot.Start(ctx); err != nil {
			log.Error("bot stopped", zap.Error(err))
			stop()
		}
	}()

	go func() {
		log.Info("http server started", zap.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}

	log.Info("bye")
}
