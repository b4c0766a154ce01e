package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"skyton-bot/internal/repository"
)

const leaderboardKey = "skyton:leaderboard"
const leaderboardSize = 50

type ReferralStats struct {
	InvitedCount int64   `json:"invited_count"`
	TotalEarned  float64 `json:"total_earned"`
	InvitedIDs   []int64 `json:"invited_ids"`
}

type LeaderboardEntry struct {
	TelegramID int64   `json:"telegram_id"`
	FirstName  string  `json:"first_name"`
	Balance    float64 `json:"balance"`
	Placement  int     `json:"placement"`
}

type Leaderboard struct {
	TotalUsers int64              `json:"total_users"`
	Entries    []LeaderboardEntry `json:"entries"`
}

// StatsService serves referral stats and the balance leaderboard. The
// leaderboard is cached in Redis with a TTL; the cache is a performance
// optimization only and every miss or Redis failure falls through to the
// database.
type StatsService struct {
	users     repository.UserStore
	referrals repository.ReferralStore
	rdb       *redis.Client
	ttl       time.Duration
	log       *zap.Logger
}

func NewStatsService(users repository.UserStore, referrals repository.ReferralStore, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *StatsService {
	return &StatsService{
		users:     users,
		referrals: referrals,
		rdb:       rdb,
		ttl:       ttl,
		log:       log,
	}
}

func (s *StatsService) ReferralStats(ctx context.Context, userID int64) (*ReferralStats, error) {
	count, earned, err := s.referrals.StatsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("referral stats for %d: %w", userID, err)
	}
	invited, err := s.referrals.ListInvited(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("referral stats for %d: %w", userID, err)
	}
	return &ReferralStats{
		InvitedCount: count,
		TotalEarned:  earned,
		InvitedIDs:   invited,
	}, nil
}

func (s *StatsService) Leaderboard(ctx context.Context) (*Leaderboard, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, leaderboardKey).Bytes()
		if err == nil {
			var cached Leaderboard
			if jerr := json.Unmarshal(raw, &cached); jerr == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	users, err := s.users.TopBalances(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	total, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	board := &Leaderboard{TotalUsers: total}
	for i, u := range users {
		board.Entries = append(board.Entries, LeaderboardEntry{
			TelegramID: u.TelegramID,
			FirstName:  u.FirstName,
			Balance:    u.Balance,
			Placement:  i + 1,
		})
	}

	if s.rdb != nil {
		if raw, jerr := json.Marshal(board); jerr == nil {
			if err := s.rdb.Set(ctx, leaderboardKey, raw, s.ttl).Err(); err != nil {
				s.log.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}
	return board, nil
}
