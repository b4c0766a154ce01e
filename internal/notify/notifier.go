package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
)

type sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Notifier delivers best-effort Telegram messages from a background
// goroutine. Enqueueing never blocks; a full queue drops the message and a
// failed send is only logged. Nothing here may affect the outcome of the
// operation being announced.
type Notifier struct {
	bot         sender
	adminChatID int64
	queue       chan *telego.SendMessageParams
	done        chan struct{}
	sendTimeout time.Duration
	log         *zap.Logger
}

func New(bot *telego.Bot, adminChatID int64, log *zap.Logger) *Notifier {
	return newWithSender(bot, adminChatID, log)
}

func newWithSender(bot sender, adminChatID int64, log *zap.Logger) *Notifier {
	n := &Notifier{
		bot:         bot,
		adminChatID: adminChatID,
		queue:       make(chan *telego.SendMessageParams, 256),
		done:        make(chan struct{}),
		sendTimeout: 10 * time.Second,
		log:         log,
	}
	go n.dispatch()
	return n
}

// Close drains the queue and stops the dispatch goroutine.
func (n *Notifier) Close() {
	close(n.queue)
	<-n.done
}

func (n *Notifier) ReferralCredited(referrerID, newUserID int64, reward float64) {
	n.enqueue(tu.Message(tu.ID(referrerID),
		fmt.Sprintf("🎉 A friend joined through your link!\n+%.0f STON and a bonus spin have been added to your account.", reward)))
	if n.adminChatID != 0 {
		n.enqueue(tu.Message(tu.ID(n.adminChatID),
			fmt.Sprintf("Referral: %d invited %d (+%.0f STON)", referrerID, newUserID, reward)))
	}
}

func (n *Notifier) PaymentReceived(userID int64, amount float64) {
	n.enqueue(tu.Message(tu.ID(userID),
		fmt.Sprintf("✅ Payment received. %.2f added to your balance.", amount)))
	if n.adminChatID != 0 {
		n.enqueue(tu.Message(tu.ID(n.adminChatID),
			fmt.Sprintf("Payment: user %d topped up %.2f", userID, amount)))
	}
}

func (n *Notifier) BroadcastFinished(id string, sent, failed int64) {
	if n.adminChatID == 0 {
		return
	}
	n.enqueue(tu.Message(tu.ID(n.adminChatID),
		fmt.Sprintf("Broadcast %s finished: %d sent, %d failed", id, sent, failed)))
}

func (n *Notifier) enqueue(params *telego.SendMessageParams) {
	select {
	case n.queue <- params:
	default:
		n.log.Warn("notification queue full, dropping message",
			zap.Int64("chat_id", params.ChatID.ID))
	}
}

func (n *Notifier) dispatch() {
	defer close(n.done)
	for params := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
		_, err := n.bot.SendMessage(ctx, params)
		cancel()
		if err != nil {
			n.log.Warn("notification send failed",
				zap.Int64("chat_id", params.ChatID.ID),
				zap.Error(err))
		}
	}
}
