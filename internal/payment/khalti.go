// Package payment talks to the Khalti e-payment gateway.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
)

// StatusCompleted is the lookup status of a settled payment
const StatusCompleted = "Completed"

// MaxOrderNameLength is the longest purchase order name the gateway accepts
const MaxOrderNameLength = 50

type Client struct {
	SecretKey string
	BaseURL   string
	client    *http.Client
}

// NewClient returns a client for baseURL, which must end with a slash
func NewClient(secretKey, baseURL string) *Client {
	return &Client{
		SecretKey: secretKey,
		BaseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type InitiateRequest struct {
	ReturnURL         string       `json:"return_url"`
	WebsiteURL        string       `json:"website_url"`
	Amount            int64        `json:"amount"` // paisa
	PurchaseOrderID   string       `json:"purchase_order_id"`
	PurchaseOrderName string       `json:"purchase_order_name"`
	CustomerInfo      CustomerInfo `json:"customer_info"`
}

type InitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
	ExpiresIn  int    `json:"expires_in"`
}

type lookupRequest struct {
	Pidx string `json:"pidx"`
}

type LookupResponse struct {
	Pidx          string `json:"pidx"`
	TotalAmount   int64  `json:"total_amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Fee           int64  `json:"fee"`
	Refunded      bool   `json:"refunded"`
}

func (r *LookupResponse) Completed() bool {
	return r.Status == StatusCompleted
}

// Initiate starts a checkout and returns the hosted payment page
func (c *Client) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	var resp InitiateResponse
	if err := c.post(ctx, "epayment/initiate/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Lookup fetches the authoritative status of a payment
func (c *Client) Lookup(ctx context.Context, pidx string) (*LookupResponse, error) {
	var resp LookupResponse
	if err := c.post(ctx, "epayment/lookup/", lookupRequest{Pidx: pidx}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends a JSON request; transport failures and non-2xx statuses wrap
// ErrPaymentUnavailable.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+c.SecretKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: failed to send request: %v", apperrors.ErrPaymentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: request failed with status %d: %s", apperrors.ErrPaymentUnavailable, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", apperrors.ErrPaymentUnavailable, err)
	}
	return nil
}
