package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"skyton-bot/internal/launch"
	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
	"skyton-bot/internal/service"
)

// Bot handles the Telegram side of onboarding: /start runs the same
// attribution pipeline as a Mini App launch, so a user is created exactly
// once no matter which door they come in through.
type Bot struct {
	Instance    *telego.Bot
	attribution *service.AttributionService
	stats       *service.StatsService
	broadcasts  repository.BroadcastStore
	users       repository.UserStore
	admins      *service.AdminAuthService
	miniAppURL  string
	log         *zap.Logger
}

func NewBot(instance *telego.Bot, attribution *service.AttributionService, stats *service.StatsService, broadcasts repository.BroadcastStore, users repository.UserStore, admins *service.AdminAuthService, miniAppURL string, log *zap.Logger) *Bot {
	return &Bot{
		Instance:    instance,
		attribution: attribution,
		stats:       stats,
		broadcasts:  broadcasts,
		users:       users,
		admins:      admins,
		miniAppURL:  miniAppURL,
		log:         log,
	}
}

func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.Instance.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.Instance, updates)
	if err != nil {
		return fmt.Errorf("failed to create bot handler: %w", err)
	}

	// /start [refID<id>|<id>]
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		from := message.From
		if from == nil {
			return nil
		}

		args := ""
		if parts := strings.SplitN(message.Text, " ", 2); len(parts) > 1 {
			args = parts[1]
		}

		pu := service.PlatformUser{
			ID:        from.ID,
			Username:  from.Username,
			FirstName: from.FirstName,
			LastName:  from.LastName,
		}
		if _, err := b.attribution.ResolveUser(ctx.Context(), pu, launch.ReferrerFromStartParam(args)); err != nil {
			// Recoverable for the user: they can relaunch; still greet them.
			b.log.Error("start: resolve user failed", zap.Int64("user_id", from.ID), zap.Error(err))
		}

		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("🚀 Open SkyTON").WithWebApp(&telego.WebAppInfo{URL: b.miniAppURL}),
			),
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("🤝 Invite friends").WithCallbackData("invite"),
			),
		)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			fmt.Sprintf("Hey, %s! 👋\n\nMine STON, complete tasks and invite friends to earn more.", from.FirstName),
		).WithReplyMarkup(keyboard))
		return nil
	}, th.CommandEqual("start"))

	// Referral link + stats
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		telegramID := callback.From.ID

		stats, err := b.stats.ReferralStats(ctx.Context(), telegramID)
		if err != nil {
			b.log.Error("invite: stats failed", zap.Int64("user_id", telegramID), zap.Error(err))
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), "❌ Could not load your referral stats, try again later."))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		botUsername := "xSkyTON_Bot"
		if info, err := b.Instance.GetMe(ctx.Context()); err == nil {
			botUsername = info.Username
		}
		refLink := fmt.Sprintf("https://t.me/%s?start=refID%d", botUsername, telegramID)

		msg := fmt.Sprintf("🤝 *Invite friends*\n\n"+
			"👥 Invited: %d\n"+
			"💰 Earned: %.0f STON\n\n"+
			"🔗 *Your link:*\n`%s`", stats.InvitedCount, stats.TotalEarned, refLink)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(telegramID), msg).WithParseMode(telego.ModeMarkdown))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("invite"))

	// /broadcast <text> — admins only; delivery happens in the worker.
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		from := message.From
		if from == nil || !b.admins.IsAdmin(from.ID) {
			return nil
		}

		parts := strings.SplitN(message.Text, " ", 2)
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(message.Chat.ID), "Usage: /broadcast <text>"))
			return nil
		}

		broadcast := &models.Broadcast{
			ID:        uuid.New().String(),
			Text:      strings.TrimSpace(parts[1]),
			Status:    models.BroadcastStatusPending,
			CreatedBy: from.ID,
		}
		if err := b.broadcasts.Create(ctx.Context(), broadcast); err != nil {
			b.log.Error("broadcast: create failed", zap.Error(err))
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(message.Chat.ID), "❌ Could not queue the broadcast."))
			return nil
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			fmt.Sprintf("📣 Broadcast %s queued.", broadcast.ID),
		))
		return nil
	}, th.CommandEqual("broadcast"))

	// /stats — admins only.
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		from := message.From
		if from == nil || !b.admins.IsAdmin(from.ID) {
			return nil
		}

		count, err := b.users.CountUsers(ctx.Context())
		if err != nil {
			b.log.Error("stats: count failed", zap.Error(err))
			return nil
		}
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			fmt.Sprintf("👥 Total users: %d", count),
		))
		return nil
	}, th.CommandEqual("stats"))

	return handler.Start()
}
