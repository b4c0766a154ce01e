package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"skyton-bot/internal/repository"
	"skyton-bot/internal/settings"
)

var ErrAdLimitReached = errors.New("daily ad reward limit reached")

// AdRewardService credits the configured reward for a watched ad, capped per
// user per UTC day. The counter lives in Redis with a TTL past midnight; the
// reward amount and cap come from the settings cache, not from code.
type AdRewardService struct {
	users    repository.UserStore
	rdb      *redis.Client
	settings *settings.Cache
	log      *zap.Logger
}

func NewAdRewardService(users repository.UserStore, rdb *redis.Client, settings *settings.Cache, log *zap.Logger) *AdRewardService {
	return &AdRewardService{
		users:    users,
		rdb:      rdb,
		settings: settings,
		log:      log,
	}
}

func (s *AdRewardService) ClaimAdReward(ctx context.Context, userID int64) (float64, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("ad reward for %d: %w", userID, err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("skyton:ads:%d:%s", userID, now.Format("2006-01-02"))

	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ad reward counter for %d: %w", userID, err)
	}
	if count == 1 {
		// Keep the key until well past the next midnight.
		if err := s.rdb.Expire(ctx, key, 26*time.Hour).Err(); err != nil {
			s.log.Warn("ad counter expire failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	if count > cfg.AdDailyLimit {
		return 0, ErrAdLimitReached
	}

	if err := s.users.AddBalance(ctx, userID, cfg.AdRewardAmount); err != nil {
		return 0, fmt.Errorf("ad reward for %d: %w", userID, err)
	}

	s.log.Info("ad reward credited",
		zap.Int64("user_id", userID),
		zap.Float64("amount", cfg.AdRewardAmount),
		zap.Int64("today", count))
	return cfg.AdRewardAmount, nil
}
