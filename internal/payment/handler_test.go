package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
)

type fakePaymentStore struct {
	mu      sync.Mutex
	applied map[string]*models.Payment
	err     error
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{applied: make(map[string]*models.Payment)}
}

func (f *fakePaymentStore) ApplyOnce(_ context.Context, payment *models.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, exists := f.applied[payment.TrackID]; exists {
		return false, nil
	}
	cp := *payment
	f.applied[payment.TrackID] = &cp
	return true, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	payments int
}

func (r *recordingNotifier) ReferralCredited(int64, int64, float64) {}

func (r *recordingNotifier) PaymentReceived(int64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments++
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments
}

func signedRequest(t *testing.T, merchantKey string, payload WebhookPayload) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	mac := hmac.New(sha512.New, []byte(merchantKey))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/payments/oxapay/webhook", bytes.NewReader(body))
	req.Header.Set("HMAC", hex.EncodeToString(mac.Sum(nil)))
	return req
}

func newWebhookHandler(store *fakePaymentStore, notifier *recordingNotifier) *Handler {
	client := NewClient("merchant-key", "https://api.example.test")
	return NewHandler(store, client, notifier, "https://example.test/webhook", zap.NewNop())
}

func TestWebhookCreditsOnce(t *testing.T) {
	store := newFakePaymentStore()
	notifier := &recordingNotifier{}
	handler := newWebhookHandler(store, notifier)

	payload := WebhookPayload{
		Status:  "Paid",
		TrackID: "track-1",
		Amount:  "12.5",
		OrderID: "topup:222:9f9d5e2c",
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.HandleWebhook(rec, signedRequest(t, "merchant-key", payload))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	if len(store.applied) != 1 {
		t.Fatalf("expected one applied payment, got %d", len(store.applied))
	}
	p := store.applied["track-1"]
	if p.UserID != 222 || p.Amount != 12.5 {
		t.Fatalf("unexpected payment: %+v", p)
	}
	if notifier.count() != 1 {
		t.Fatalf("redelivery must not notify twice, got %d", notifier.count())
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := newFakePaymentStore()
	handler := newWebhookHandler(store, &recordingNotifier{})

	req := signedRequest(t, "wrong-key", WebhookPayload{Status: "Paid", TrackID: "track-1", Amount: "5", OrderID: "topup:222:x"})
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(store.applied) != 0 {
		t.Fatal("an unsigned webhook must not credit anything")
	}
}

func TestWebhookIgnoresUnpaidStatus(t *testing.T) {
	store := newFakePaymentStore()
	handler := newWebhookHandler(store, &recordingNotifier{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, signedRequest(t, "merchant-key", WebhookPayload{
		Status: "Waiting", TrackID: "track-1", Amount: "5", OrderID: "topup:222:x",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.applied) != 0 {
		t.Fatal("a non-paid status must not credit")
	}
}

func TestWebhookUnroutableOrderAcked(t *testing.T) {
	store := newFakePaymentStore()
	handler := newWebhookHandler(store, &recordingNotifier{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, signedRequest(t, "merchant-key", WebhookPayload{
		Status: "Paid", TrackID: "track-1", Amount: "5", OrderID: "subscription:whatever",
	}))

	// Permanent failure: acked so the gateway stops retrying.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.applied) != 0 {
		t.Fatal("an unroutable order must not credit")
	}
}

func TestWebhookStoreFailureAsksForRetry(t *testing.T) {
	store := newFakePaymentStore()
	store.err = errors.New("connection refused")
	handler := newWebhookHandler(store, &recordingNotifier{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, signedRequest(t, "merchant-key", WebhookPayload{
		Status: "Paid", TrackID: "track-1", Amount: "5", OrderID: "topup:222:x",
	}))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 so the gateway retries, got %d", rec.Code)
	}
}

func TestWebhookUnknownUserAcked(t *testing.T) {
	store := newFakePaymentStore()
	store.err = repository.ErrNotFound
	handler := newWebhookHandler(store, &recordingNotifier{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, signedRequest(t, "merchant-key", WebhookPayload{
		Status: "Paid", TrackID: "track-1", Amount: "5", OrderID: "topup:999:x",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a permanently unroutable credit, got %d", rec.Code)
	}
}

func TestWebhookRejectsGet(t *testing.T) {
	handler := newWebhookHandler(newFakePaymentStore(), &recordingNotifier{})

	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, httptest.NewRequest(http.MethodGet, "/payments/oxapay/webhook", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("merchant-key", "https://api.example.test")
	body := []byte(`{"status":"Paid"}`)

	mac := hmac.New(sha512.New, []byte("merchant-key"))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	if !client.VerifySignature(body, good) {
		t.Fatal("valid signature rejected")
	}
	if client.VerifySignature(body, "deadbeef") {
		t.Fatal("bogus signature accepted")
	}
	if client.VerifySignature(append(body, ' '), good) {
		t.Fatal("signature must cover the exact body")
	}
}
