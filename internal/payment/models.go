package payment

type CreateInvoiceRequest struct {
	Merchant    string  `json:"merchant"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	LifeTime    int     `json:"lifeTime"`
	CallbackURL string  `json:"callbackUrl,omitempty"`
	Description string  `json:"description,omitempty"`
	OrderID     string  `json:"orderId"`
}

type InvoiceResponse struct {
	Result  int    `json:"result"`
	Message string `json:"message"`
	TrackID string `json:"trackId"`
	PayLink string `json:"payLink"`
}

// WebhookPayload is what OxaPay posts to the callback URL.
type WebhookPayload struct {
	Status   string `json:"status"`
	TrackID  string `json:"trackId"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"orderId"`
	Email    string `json:"email,omitempty"`
	Date     int64  `json:"date,omitempty"`
}
