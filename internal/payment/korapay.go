// Package payment integrates the Korapay gateway: charge initialization at
// checkout and the webhook reconciliation that settles orders.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Gateway initiates a hosted charge and returns the checkout URL the
// customer is sent to. Implemented by Client; tests use a fake.
type Gateway interface {
	InitializeCharge(ctx context.Context, req ChargeRequest) (string, error)
}

type ChargeRequest struct {
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Reference       string            `json:"reference"`
	RedirectURL     string            `json:"redirect_url,omitempty"`
	NotificationURL string            `json:"notification_url,omitempty"`
	Narration       string            `json:"narration,omitempty"`
	Customer        ChargeCustomer    `json:"customer"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type ChargeCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

type chargeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
		Reference   string `json:"reference"`
	} `json:"data"`
}

func (c *Client) InitializeCharge(ctx context.Context, req ChargeRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/merchant/api/v1/charges/initialize"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("korapay initialize: status %d: %s", resp.StatusCode, raw)
	}

	var out chargeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	if out.Data.CheckoutURL == "" {
		return "", fmt.Errorf("korapay initialize: no checkout url (%s)", out.Message)
	}
	return out.Data.CheckoutURL, nil
}
