package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Client talks to the OxaPay merchant API.
type Client struct {
	MerchantKey string
	APIURL      string
	HTTPClient  *http.Client
}

func NewClient(merchantKey, apiURL string) *Client {
	return &Client{
		MerchantKey: merchantKey,
		APIURL:      apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) CreateInvoice(ctx context.Context, amount float64, orderID, description, callbackURL string) (*InvoiceResponse, error) {
	reqBody := CreateInvoiceRequest{
		Merchant:    c.MerchantKey,
		Amount:      amount,
		Currency:    "TON",
		LifeTime:    30,
		CallbackURL: callbackURL,
		Description: description,
		OrderID:     orderID,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/merchants/request", c.APIURL), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	var invoice InvoiceResponse
	if err := json.Unmarshal(respBody, &invoice); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if invoice.Result != 100 {
		return nil, fmt.Errorf("oxapay rejected invoice: %s (result: %d)", invoice.Message, invoice.Result)
	}

	return &invoice, nil
}

// VerifySignature checks the HMAC-SHA512 of the raw webhook body, signed
// with the merchant key.
func (c *Client) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.MerchantKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
