// Package paystack is a small client for the Paystack transactions API.
package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.paystack.co"

// Transaction statuses reported by verify.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
	StatusReversed  = "reversed"
)

// Client calls the Paystack REST API with a secret key.
type Client struct {
	http *resty.Client
}

// New returns a client for baseURL authenticated with secretKey.
func New(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond)
	return &Client{http: httpClient}
}

// APIError is returned when Paystack answers with a non-2xx status or status=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %d %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// InitializeRequest starts a hosted payment page. Amount is in minor units.
type InitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Channels    []string          `json:"channels,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Transaction struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Channel         string          `json:"channel"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          string          `json:"paid_at"`
	Metadata        json.RawMessage `json:"metadata"`
}

type Refund struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type refundData struct {
	Refund
	Transaction Transaction `json:"transaction"`
}

// Event is a webhook notification.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func do[T any](ctx context.Context, req *resty.Request, method, path string) (T, error) {
	var out envelope[T]
	var apiErr envelope[json.RawMessage]
	resp, err := req.SetContext(ctx).SetResult(&out).SetError(&apiErr).Execute(method, path)
	if err != nil {
		return out.Data, fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = resp.Status()
		}
		return out.Data, &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}
	if !out.Status {
		return out.Data, &APIError{StatusCode: resp.StatusCode(), Message: out.Message}
	}
	return out.Data, nil
}

// InitializeTransaction creates a transaction and returns the checkout URL.
func (c *Client) InitializeTransaction(ctx context.Context, in InitializeRequest) (*Authorization, error) {
	auth, err := do[Authorization](ctx, c.http.R().SetBody(in), resty.MethodPost, "/transaction/initialize")
	if err != nil {
		return nil, err
	}
	return &auth, nil
}

// VerifyTransaction fetches the current state of a transaction by reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	tx, err := do[Transaction](ctx, c.http.R().SetPathParam("reference", reference), resty.MethodGet, "/transaction/verify/{reference}")
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// RefundTransaction refunds a transaction in full when amount is zero.
func (c *Client) RefundTransaction(ctx context.Context, reference string, amount int64) (*Refund, error) {
	body := map[string]interface{}{"transaction": reference}
	if amount > 0 {
		body["amount"] = amount
	}
	data, err := do[refundData](ctx, c.http.R().SetBody(body), resty.MethodPost, "/refund")
	if err != nil {
		return nil, err
	}
	return &data.Refund, nil
}

// VerifySignature checks the x-paystack-signature header, the hex HMAC-SHA512
// of the raw request body keyed with the secret key.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// Sign returns the signature Paystack would send for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
