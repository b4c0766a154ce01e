package worker

import (
	"context"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
)

type sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

type finishNotifier interface {
	BroadcastFinished(id string, sent, failed int64)
}

type userLister interface {
	ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
}

// Broadcaster drains queued broadcasts: it pages through all user ids and
// sends the text to each, paced under Telegram's bulk-message ceiling.
// Send failures (blocked bot, deleted account) are counted, not retried.
type Broadcaster struct {
	broadcasts repository.BroadcastStore
	users      userLister
	bot        sender
	notifier   finishNotifier
	limiter    *rate.Limiter
	interval   time.Duration
	pageSize   int
	log        *zap.Logger
}

func NewBroadcaster(broadcasts repository.BroadcastStore, users repository.UserStore, bot *telego.Bot, notifier finishNotifier, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		broadcasts: broadcasts,
		users:      users,
		bot:        bot,
		notifier:   notifier,
		// Telegram caps bulk sends around 30/s; stay under it.
		limiter:  rate.NewLimiter(25, 5),
		interval: 10 * time.Second,
		pageSize: 500,
		log:      log,
	}
}

func (w *Broadcaster) Start(ctx context.Context) {
	w.log.Info("broadcast worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Broadcaster) runOnce(ctx context.Context) {
	broadcast, err := w.broadcasts.ClaimPending(ctx)
	if err != nil {
		w.log.Error("broadcast worker: claim failed", zap.Error(err))
		return
	}
	if broadcast == nil {
		return
	}
	w.deliver(ctx, broadcast)
}

func (w *Broadcaster) deliver(ctx context.Context, broadcast *models.Broadcast) {
	w.log.Info("broadcast delivery started", zap.String("id", broadcast.ID))

	var sent, failed int64
	afterID := int64(0)

	for {
		ids, err := w.users.ListIDs(ctx, afterID, w.pageSize)
		if err != nil {
			w.log.Error("broadcast worker: page failed", zap.String("id", broadcast.ID), zap.Error(err))
			w.finish(ctx, broadcast.ID, models.BroadcastStatusFailed, sent, failed)
			return
		}
		if len(ids) == 0 {
			break
		}

		for _, userID := range ids {
			if err := w.limiter.Wait(ctx); err != nil {
				// Shutting down; keep the progress we made.
				w.finish(ctx, broadcast.ID, models.BroadcastStatusFailed, sent, failed)
				return
			}
			if _, err := w.bot.SendMessage(ctx, tu.Message(tu.ID(userID), broadcast.Text)); err != nil {
				failed++
			} else {
				sent++
			}
			if (sent+failed)%100 == 0 {
				if err := w.broadcasts.UpdateProgress(ctx, broadcast.ID, sent, failed); err != nil {
					w.log.Warn("broadcast worker: progress update failed", zap.Error(err))
				}
			}
		}
		afterID = ids[len(ids)-1]
	}

	w.finish(ctx, broadcast.ID, models.BroadcastStatusDone, sent, failed)
	if w.notifier != nil {
		w.notifier.BroadcastFinished(broadcast.ID, sent, failed)
	}
	w.log.Info("broadcast delivery finished",
		zap.String("id", broadcast.ID),
		zap.Int64("sent", sent),
		zap.Int64("failed", failed))
}

func (w *Broadcaster) finish(ctx context.Context, id, status string, sent, failed int64) {
	if err := w.broadcasts.UpdateProgress(ctx, id, sent, failed); err != nil {
		w.log.Warn("broadcast worker: final progress update failed", zap.Error(err))
	}
	if err := w.broadcasts.Finish(ctx, id, status); err != nil {
		w.log.Error("broadcast worker: finish failed", zap.Error(err))
	}
}
