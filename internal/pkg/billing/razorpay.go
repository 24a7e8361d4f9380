package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avishkar-academy/vault/internal/pkg/apperrors"
	"github.com/avishkar-academy/vault/internal/pkg/env"
)

const defaultRazorpayAPIBaseURL = "https://api.razorpay.com"

// Gateway opens orders with the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
	// PublicKeyID is handed to the checkout widget.
	PublicKeyID() string
}

type RazorpayClient struct {
	KeyID      string
	KeySecret  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewRazorpayClientFromEnv() *RazorpayClient {
	return &RazorpayClient{
		KeyID:      strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_ID", "")),
		KeySecret:  strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_SECRET", "")),
		APIBaseURL: strings.TrimRight(strings.TrimSpace(env.GetEnv("RAZORPAY_API_BASE_URL", defaultRazorpayAPIBaseURL)), "/"),
		HTTPClient: &http.Client{
			Timeout: time.Duration(env.GetEnvInt("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second,
		},
	}
}

func (c *RazorpayClient) PublicKeyID() string {
	return c.KeyID
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder calls POST /v1/orders. Every failure, including timeouts and
// non-2xx answers, is a retryable GatewayError.
func (c *RazorpayClient) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	if c.KeyID == "" || c.KeySecret == "" {
		return nil, apperrors.Gateway(errors.New("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET are not configured"), "gateway not configured")
	}

	payload, err := json.Marshal(razorpayOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.KeyID, c.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Gateway(err, "razorpay order request failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var rzErr razorpayError
		_ = json.Unmarshal(body, &rzErr)
		return nil, apperrors.Gateway(
			fmt.Errorf("status=%d code=%s body=%s", resp.StatusCode, rzErr.Error.Code, string(body)),
			"razorpay rejected order: %s", rzErr.Error.Description)
	}

	var out GatewayOrder
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.Gateway(err, "invalid razorpay order response")
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, apperrors.Gateway(errors.New("missing order id"), "invalid razorpay order response")
	}
	return &out, nil
}
