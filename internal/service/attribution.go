package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
)

var ErrInvalidInput = errors.New("platform user id is required")

// PlatformUser is the identity carried by a launch context or a bot update.
type PlatformUser struct {
	ID            int64
	Username      string
	FirstName     string
	LastName      string
	ProfilePicURL string
}

// AttributionService idempotently finds-or-creates users and records who
// invited them. A referrer is attached at most once per user; crediting
// fires exactly when the attribution is new.
type AttributionService struct {
	users   repository.UserStore
	rewards *RewardService
	log     *zap.Logger
}

func NewAttributionService(users repository.UserStore, rewards *RewardService, log *zap.Logger) *AttributionService {
	return &AttributionService{
		users:   users,
		rewards: rewards,
		log:     log,
	}
}

// ResolveUser loads or creates the user for pu and applies referral
// attribution. referrerID arrives as a string because launch parameters do;
// anything non-numeric, empty, or equal to the user's own id counts as
// "no referrer".
func (s *AttributionService) ResolveUser(ctx context.Context, pu PlatformUser, referrerID string) (*models.User, error) {
	if pu.ID == 0 {
		return nil, ErrInvalidInput
	}

	refID := s.normalizeReferrer(pu.ID, referrerID)

	existing, err := s.users.GetByID(ctx, pu.ID)
	if err != nil {
		s.log.Error("resolve user: load failed", zap.Int64("user_id", pu.ID), zap.Error(err))
		return nil, fmt.Errorf("resolve user %d: %w", pu.ID, err)
	}
	if existing != nil {
		return s.mergeExisting(ctx, pu, existing, refID)
	}

	user := &models.User{
		TelegramID:    pu.ID,
		Username:      pu.Username,
		FirstName:     pu.FirstName,
		LastName:      pu.LastName,
		ProfilePicURL: pu.ProfilePicURL,
		JoinedAt:      time.Now().UTC(),
	}
	if refID != 0 {
		user.InvitedBy = &refID
	}

	created, err := s.users.CreateIfAbsent(ctx, user)
	if err != nil {
		s.log.Error("resolve user: create failed", zap.Int64("user_id", pu.ID), zap.Error(err))
		return nil, fmt.Errorf("create user %d: %w", pu.ID, err)
	}
	if !created {
		// Lost a duplicate-onboarding race; the winner owns attribution.
		winner, err := s.users.GetByID(ctx, pu.ID)
		if err != nil {
			return nil, fmt.Errorf("reload user %d: %w", pu.ID, err)
		}
		if winner == nil {
			return nil, fmt.Errorf("user %d vanished after create conflict", pu.ID)
		}
		return s.mergeExisting(ctx, pu, winner, refID)
	}

	if refID != 0 {
		s.credit(ctx, refID, pu.ID)
	}
	return user, nil
}

// User is a plain lookup for request handlers; (nil, nil) when unknown.
func (s *AttributionService) User(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AttributionService) mergeExisting(ctx context.Context, pu PlatformUser, user *models.User, refID int64) (*models.User, error) {
	fields := map[string]any{}
	if pu.Username != "" && pu.Username != user.Username {
		fields["username"] = pu.Username
		user.Username = pu.Username
	}
	if pu.FirstName != "" && pu.FirstName != user.FirstName {
		fields["first_name"] = pu.FirstName
		user.FirstName = pu.FirstName
	}
	if pu.LastName != user.LastName {
		fields["last_name"] = pu.LastName
		user.LastName = pu.LastName
	}
	if pu.ProfilePicURL != "" && pu.ProfilePicURL != user.ProfilePicURL {
		fields["profile_pic_url"] = pu.ProfilePicURL
		user.ProfilePicURL = pu.ProfilePicURL
	}
	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, user.TelegramID, fields); err != nil {
			// A stale display name is not worth failing the launch over.
			s.log.Warn("resolve user: profile merge failed", zap.Int64("user_id", user.TelegramID), zap.Error(err))
		}
	}

	if refID == 0 {
		return user, nil
	}

	switch {
	case user.InvitedBy == nil:
		set, err := s.users.SetInvitedBy(ctx, user.TelegramID, refID)
		if err != nil {
			s.log.Error("resolve user: attribution write failed", zap.Int64("user_id", user.TelegramID), zap.Error(err))
			return user, nil
		}
		if set {
			user.InvitedBy = &refID
			s.credit(ctx, refID, user.TelegramID)
		}
	case *user.InvitedBy != refID:
		// Attribution conflict: first referrer wins, always.
		s.log.Warn("resolve user: attribution conflict",
			zap.Int64("user_id", user.TelegramID),
			zap.Int64("invited_by", *user.InvitedBy),
			zap.Int64("rejected_referrer", refID))
	}

	return user, nil
}

func (s *AttributionService) credit(ctx context.Context, referrerID, newUserID int64) {
	if err := s.rewards.CreditReferral(ctx, referrerID, newUserID); err != nil {
		// The attribution itself is already durable; crediting has its own
		// retries and its failure must not break onboarding.
		s.log.Error("resolve user: crediting failed",
			zap.Int64("referrer_id", referrerID),
			zap.Int64("new_user_id", newUserID),
			zap.Error(err))
	}
}

// normalizeReferrer parses the candidate and drops self referrals before
// anything is written. Ids can arrive as strings or numbers upstream, so the
// comparison happens on the parsed value.
func (s *AttributionService) normalizeReferrer(userID int64, referrerID string) int64 {
	if referrerID == "" {
		return 0
	}
	refID, err := strconv.ParseInt(referrerID, 10, 64)
	if err != nil || refID <= 0 {
		return 0
	}
	if refID == userID {
		s.log.Debug("self referral dropped", zap.Int64("user_id", userID))
		return 0
	}
	return refID
}
