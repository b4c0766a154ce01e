package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skyton-bot/internal/repository"
)

var (
	ErrSelfReferral     = errors.New("referrer and new user are the same account")
	ErrReferrerNotFound = errors.New("referrer does not exist")
)

// Notifier is the best-effort side channel rewarded events are announced on.
// Implementations must never block the caller and may drop messages.
type Notifier interface {
	ReferralCredited(referrerID, newUserID int64, reward float64)
	PaymentReceived(userID int64, amount float64)
}

// RewardService credits referrers exactly once per invited user.
type RewardService struct {
	referrals repository.ReferralStore
	notifier  Notifier
	log       *zap.Logger

	reward      float64
	spinBonus   int64
	maxAttempts int
	retryDelay  time.Duration
}

func NewRewardService(referrals repository.ReferralStore, notifier Notifier, reward float64, spinBonus int64, log *zap.Logger) *RewardService {
	return &RewardService{
		referrals:   referrals,
		notifier:    notifier,
		log:         log,
		reward:      reward,
		spinBonus:   spinBonus,
		maxAttempts: 3,
		retryDelay:  200 * time.Millisecond,
	}
}

// CreditReferral applies the referral reward for (referrerID, newUserID).
// Re-invocation for an already-credited pair is a successful no-op, so
// webhook redelivery and duplicate launches are safe. Transient store errors
// are retried a bounded number of times; the underlying write uses atomic
// increments, so a retry can never double-apply.
func (s *RewardService) CreditReferral(ctx context.Context, referrerID, newUserID int64) error {
	if referrerID == 0 || newUserID == 0 {
		return ErrInvalidInput
	}
	if referrerID == newUserID {
		// The attribution service filters this already; kept as a hard stop.
		return ErrSelfReferral
	}

	var credited bool
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		credited, err = s.referrals.CreditOnce(ctx, referrerID, newUserID, s.reward, s.spinBonus)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("credit referral: referrer missing",
				zap.Int64("referrer_id", referrerID),
				zap.Int64("new_user_id", newUserID))
			return ErrReferrerNotFound
		}
		s.log.Warn("credit referral: attempt failed",
			zap.Int64("referrer_id", referrerID),
			zap.Int64("new_user_id", newUserID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < s.maxAttempts {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err != nil {
		return fmt.Errorf("credit referral %d<-%d: %w", referrerID, newUserID, err)
	}

	if credited {
		s.log.Info("referral credited",
			zap.Int64("referrer_id", referrerID),
			zap.Int64("new_user_id", newUserID),
			zap.Float64("reward", s.reward))
		if s.notifier != nil {
			s.notifier.ReferralCredited(referrerID, newUserID, s.reward)
		}
	}
	return nil
}
