package payment

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
	"skyton-bot/internal/service"
)

const maxWebhookBody = 1 << 20

// Handler owns the top-up flow: invoice creation for an authenticated user
// and the gateway webhook that credits the balance.
type Handler struct {
	payments    repository.PaymentStore
	client      *Client
	notifier    service.Notifier
	callbackURL string
	log         *zap.Logger
}

func NewHandler(payments repository.PaymentStore, client *Client, notifier service.Notifier, callbackURL string, log *zap.Logger) *Handler {
	return &Handler{
		payments:    payments,
		client:      client,
		notifier:    notifier,
		callbackURL: callbackURL,
		log:         log,
	}
}

// CreateInvoice builds an OxaPay invoice for userID. The order id encodes
// the user so the webhook can route the credit without extra state.
func (h *Handler) CreateInvoice(r *http.Request, userID int64, amount float64) (*InvoiceResponse, error) {
	orderID := fmt.Sprintf("topup:%d:%s", userID, uuid.New().String())
	invoice, err := h.client.CreateInvoice(r.Context(), amount, orderID, "SkyTON balance top-up", h.callbackURL)
	if err != nil {
		return nil, fmt.Errorf("create invoice for %d: %w", userID, err)
	}
	return invoice, nil
}

// HandleWebhook processes OxaPay payment callbacks. Crediting is keyed by
// the gateway track id, so redeliveries are acknowledged without a second
// credit. Transient store failures return 500 so the gateway retries.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if !h.client.VerifySignature(body, r.Header.Get("HMAC")) {
		h.log.Warn("payment webhook: bad signature", zap.String("remote", r.RemoteAddr))
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.log.Warn("payment webhook: undecodable body", zap.Error(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if !strings.EqualFold(payload.Status, "Paid") {
		h.log.Info("payment webhook: ignored status",
			zap.String("status", payload.Status),
			zap.String("track_id", payload.TrackID))
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, err := userIDFromOrder(payload.OrderID)
	if err != nil {
		h.log.Error("payment webhook: unroutable order",
			zap.String("order_id", payload.OrderID),
			zap.String("track_id", payload.TrackID))
		// Permanent; retrying will not help the gateway.
		w.WriteHeader(http.StatusOK)
		return
	}

	amount, err := strconv.ParseFloat(payload.Amount, 64)
	if err != nil || amount <= 0 {
		h.log.Error("payment webhook: bad amount",
			zap.String("amount", payload.Amount),
			zap.String("track_id", payload.TrackID))
		w.WriteHeader(http.StatusOK)
		return
	}

	applied, err := h.payments.ApplyOnce(r.Context(), &models.Payment{
		UserID:  userID,
		Amount:  amount,
		Status:  "succeeded",
		Type:    "balance_topup",
		TrackID: payload.TrackID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.log.Error("payment webhook: unknown user",
				zap.Int64("user_id", userID),
				zap.String("track_id", payload.TrackID))
			w.WriteHeader(http.StatusOK)
			return
		}
		h.log.Error("payment webhook: apply failed",
			zap.String("track_id", payload.TrackID),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if applied {
		h.log.Info("payment applied",
			zap.Int64("user_id", userID),
			zap.Float64("amount", amount),
			zap.String("track_id", payload.TrackID))
		if h.notifier != nil {
			h.notifier.PaymentReceived(userID, amount)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func userIDFromOrder(orderID string) (int64, error) {
	parts := strings.Split(orderID, ":")
	if len(parts) < 2 || parts[0] != "topup" {
		return 0, fmt.Errorf("unexpected order id format: %q", orderID)
	}
	return strconv.ParseInt(parts[1], 10, 64)
}
