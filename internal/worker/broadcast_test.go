package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"skyton-bot/internal/models"
)

type fakeBroadcastStore struct {
	mu      sync.Mutex
	pending []*models.Broadcast
	done    map[string]string
	sent    map[string]int64
	failed  map[string]int64
}

func newFakeBroadcastStore(pending ...*models.Broadcast) *fakeBroadcastStore {
	return &fakeBroadcastStore{
		pending: pending,
		done:    make(map[string]string),
		sent:    make(map[string]int64),
		failed:  make(map[string]int64),
	}
}

func (f *fakeBroadcastStore) Create(_ context.Context, b *models.Broadcast) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, b)
	return nil
}

func (f *fakeBroadcastStore) Get(_ context.Context, id string) (*models.Broadcast, error) {
	return nil, nil
}

func (f *fakeBroadcastStore) ClaimPending(_ context.Context) (*models.Broadcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, nil
	}
	b := f.pending[0]
	f.pending = f.pending[1:]
	b.Status = models.BroadcastStatusRunning
	return b, nil
}

func (f *fakeBroadcastStore) UpdateProgress(_ context.Context, id string, sent, failed int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[id] = sent
	f.failed[id] = failed
	return nil
}

func (f *fakeBroadcastStore) Finish(_ context.Context, id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done[id] = status
	return nil
}

type fakeUserLister struct {
	ids []int64
}

func (f *fakeUserLister) ListIDs(_ context.Context, afterID int64, limit int) ([]int64, error) {
	var out []int64
	for _, id := range f.ids {
		if id > afterID {
			out = append(out, id)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type blockedSender struct {
	mu      sync.Mutex
	sent    []int64
	blocked map[int64]bool
}

func (s *blockedSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := params.ChatID.ID
	if s.blocked[id] {
		return nil, errors.New("Forbidden: bot was blocked by the user")
	}
	s.sent = append(s.sent, id)
	return &telego.Message{}, nil
}

type finishRecorder struct {
	mu    sync.Mutex
	calls int
}

func (r *finishRecorder) BroadcastFinished(string, int64, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func newBroadcasterForTest(store *fakeBroadcastStore, ids []int64, sender *blockedSender, notifier *finishRecorder) *Broadcaster {
	return &Broadcaster{
		broadcasts: store,
		users:      &fakeUserLister{ids: ids},
		bot:        sender,
		notifier:   notifier,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		interval:   0,
		pageSize:   2,
		log:        zap.NewNop(),
	}
}

func TestBroadcastDeliversToAllUsers(t *testing.T) {
	store := newFakeBroadcastStore(&models.Broadcast{ID: "b1", Text: "hello", Status: models.BroadcastStatusPending})
	sender := &blockedSender{}
	notifier := &finishRecorder{}
	w := newBroadcasterForTest(store, []int64{1, 2, 3, 4, 5}, sender, notifier)

	w.runOnce(context.Background())

	if got := len(sender.sent); got != 5 {
		t.Fatalf("expected 5 deliveries, got %d", got)
	}
	if store.done["b1"] != models.BroadcastStatusDone {
		t.Fatalf("expected done status, got %q", store.done["b1"])
	}
	if store.sent["b1"] != 5 || store.failed["b1"] != 0 {
		t.Fatalf("unexpected counters: sent=%d failed=%d", store.sent["b1"], store.failed["b1"])
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one finish notification, got %d", notifier.calls)
	}
}

func TestBroadcastCountsBlockedUsers(t *testing.T) {
	store := newFakeBroadcastStore(&models.Broadcast{ID: "b1", Text: "hello", Status: models.BroadcastStatusPending})
	sender := &blockedSender{blocked: map[int64]bool{2: true, 4: true}}
	w := newBroadcasterForTest(store, []int64{1, 2, 3, 4, 5}, sender, &finishRecorder{})

	w.runOnce(context.Background())

	if store.sent["b1"] != 3 || store.failed["b1"] != 2 {
		t.Fatalf("unexpected counters: sent=%d failed=%d", store.sent["b1"], store.failed["b1"])
	}
	if store.done["b1"] != models.BroadcastStatusDone {
		t.Fatalf("blocked users must not fail the broadcast, got %q", store.done["b1"])
	}
}

func TestBroadcastNothingPending(t *testing.T) {
	store := newFakeBroadcastStore()
	sender := &blockedSender{}
	w := newBroadcasterForTest(store, []int64{1, 2}, sender, &finishRecorder{})

	w.runOnce(context.Background())

	if len(sender.sent) != 0 {
		t.Fatalf("nothing was pending, but %d messages went out", len(sender.sent))
	}
}
