package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeCharge(t *testing.T) {
	var got ChargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant/api/v1/charges/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_x", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "success",
			"data": map[string]any{
				"checkout_url": "https://checkout.korapay.com/pay/abc",
				"reference":    got.Reference,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_x", 5*time.Second)
	url, err := c.InitializeCharge(context.Background(), ChargeRequest{
		Amount:    18000,
		Currency:  "NGN",
		Reference: "ref-1",
		Customer:  ChargeCustomer{Email: "cust-1@oohlalaa.shop", Name: "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.korapay.com/pay/abc", url)
	assert.Equal(t, int64(18000), got.Amount)
	assert.Equal(t, "NGN", got.Currency)
}

func TestInitializeChargeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_x", 5*time.Second)
	_, err := c.InitializeCharge(context.Background(), ChargeRequest{Reference: "ref-1"})
	assert.ErrorContains(t, err, "status 502")

	// 200 without a checkout URL is still a failure.
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "invalid key"})
	}))
	defer srv2.Close()

	c = NewClient(srv2.URL, "sk_test_x", 5*time.Second)
	_, err = c.InitializeCharge(context.Background(), ChargeRequest{Reference: "ref-1"})
	assert.ErrorContains(t, err, "no checkout url")
}
