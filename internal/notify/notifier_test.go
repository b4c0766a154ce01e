package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*telego.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params)
	return &telego.Message{}, f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestReferralCredited_SendsToReferrerAndAdmin(t *testing.T) {
	fake := &fakeSender{}
	n := newWithSender(fake, 999, zap.NewNop())

	n.ReferralCredited(123456, 789012, 50)
	n.Close()

	if got := fake.count(); got != 2 {
		t.Fatalf("sent messages: got %d, want 2", got)
	}
	if fake.sent[0].ChatID.ID != 123456 {
		t.Errorf("first message chat: got %d, want 123456", fake.sent[0].ChatID.ID)
	}
	if fake.sent[1].ChatID.ID != 999 {
		t.Errorf("second message chat: got %d, want 999", fake.sent[1].ChatID.ID)
	}
}

func TestReferralCredited_NoAdminChannelConfigured(t *testing.T) {
	fake := &fakeSender{}
	n := newWithSender(fake, 0, zap.NewNop())

	n.ReferralCredited(1, 2, 50)
	n.Close()

	if got := fake.count(); got != 1 {
		t.Fatalf("sent messages: got %d, want 1", got)
	}
}

func TestSendFailureIsSwallowed(t *testing.T) {
	fake := &fakeSender{err: errors.New("telegram is down")}
	n := newWithSender(fake, 0, zap.NewNop())

	// Must not panic, block, or surface the error anywhere.
	n.PaymentReceived(42, 9.5)
	n.Close()

	if got := fake.count(); got != 1 {
		t.Fatalf("send attempts: got %d, want 1", got)
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	fake := &fakeSender{}
	n := newWithSender(fake, 0, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5000; i++ {
			n.PaymentReceived(int64(i), 1)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("enqueue blocked")
	}
	n.Close()
}
