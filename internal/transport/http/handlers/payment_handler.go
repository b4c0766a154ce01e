package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"skyton-bot/internal/payment"
	"skyton-bot/internal/transport/http/middleware"
)

type PaymentHandler struct {
	payments *payment.Handler
	log      *zap.Logger
}

func NewPaymentHandler(payments *payment.Handler, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

type createInvoiceRequest struct {
	Amount float64 `json:"amount"`
}

// CreateInvoice handles POST /api/payments/invoice.
func (h *PaymentHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	data, ok := middleware.InitDataFromContext(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	var req createInvoiceRequest
	if err := decodeJSON(r, &req); err != nil || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Amount must be a positive number")
		return
	}

	invoice, err := h.payments.CreateInvoice(r, data.User.ID, req.Amount)
	if err != nil {
		h.log.Error("create invoice failed", zap.Int64("user_id", data.User.ID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Could not create the invoice, please retry")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"track_id": invoice.TrackID,
		"pay_link": invoice.PayLink,
	})
}
