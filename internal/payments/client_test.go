package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hackload-kz/rorobotics/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, breaker *CircuitBreaker) Gateway {
	t.Helper()
	cfg := &config.Config{
		BaseURL:   "http://localhost:8080",
		APIPrefix: "/api",
		Payment: config.PaymentConfig{
			BaseURL:  baseURL,
			TeamSlug: "rorobotics",
			Password: "secret",
			Currency: "KZT",
		},
	}
	return NewClient(cfg, breaker)
}

func sha256String(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestCreatePaymentSignsAndSendsInitRequest(t *testing.T) {
	var got map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/PaymentInit/init", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"paymentId":  "pay-123",
			"paymentURL": "https://pay.example/pay-123",
		})
	}))
	defer server.Close()

	gateway := newTestClient(t, server.URL, NewCircuitBreaker(5, time.Minute))

	resp, err := gateway.CreatePayment(context.Background(), CreatePaymentParams{
		Amount:      150000,
		OrderID:     "booking-7-1700000000",
		Description: "Concert - 2 seats",
		Email:       "user@example.com",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.PaymentID)
	assert.Equal(t, "pay-123", *resp.PaymentID)

	// token = sha256(amount + currency + orderId + password + teamSlug)
	wantToken := sha256String("150000KZTbooking-7-1700000000secretrorobotics")
	assert.Equal(t, wantToken, got["token"])
	assert.Equal(t, "rorobotics", got["teamSlug"])
	assert.Equal(t, float64(150000), got["amount"])
	assert.Equal(t, "KZT", got["currency"])
	assert.Equal(t, "ru", got["language"])
	assert.Equal(t, "user@example.com", got["email"])
	assert.Equal(t, "http://localhost:8080/api/payments/success", got["successURL"])
	assert.Equal(t, "http://localhost:8080/api/payments/fail", got["failURL"])
	assert.Equal(t, "http://localhost:8080/api/webhook/payment", got["notificationURL"])
}

func TestCheckPaymentStatusSignsWithPaymentID(t *testing.T) {
	var got map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/PaymentCheck/check", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"status":    "CONFIRMED",
			"paymentId": "pay-123",
		})
	}))
	defer server.Close()

	gateway := newTestClient(t, server.URL, NewCircuitBreaker(5, time.Minute))

	resp, err := gateway.CheckPaymentStatus(context.Background(), "pay-123")
	require.NoError(t, err)

	require.NotNil(t, resp.Status)
	assert.Equal(t, GatewayStatusConfirmed, *resp.Status)

	// token = sha256(paymentId + password + teamSlug)
	assert.Equal(t, sha256String("pay-123secretrorobotics"), got["token"])
	assert.Equal(t, "pay-123", got["paymentId"])
}

func TestConfirmPaymentCarriesOrderContext(t *testing.T) {
	var got map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/PaymentConfirm/confirm", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	gateway := newTestClient(t, server.URL, NewCircuitBreaker(5, time.Minute))

	resp, err := gateway.ConfirmPayment(context.Background(), "pay-123", 150000, "KZT", "booking-7-1700000000")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.Equal(t, "pay-123", got["paymentId"])
	assert.Equal(t, float64(150000), got["amount"])
	assert.Equal(t, sha256String("150000KZTbooking-7-1700000000secretrorobotics"), got["token"])
}

func TestGatewayErrorResponseDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"code":    1006,
			"message": "Unsupported currency",
		})
	}))
	defer server.Close()

	breaker := NewCircuitBreaker(1, time.Minute)
	gateway := newTestClient(t, server.URL, breaker)

	resp, err := gateway.CreatePayment(context.Background(), CreatePaymentParams{
		Amount:  100,
		OrderID: "booking-1-1",
	})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Code)
	assert.Equal(t, 1006, *resp.Code)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestTransportFailureOpensBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // every call now fails at the transport level

	breaker := NewCircuitBreaker(1, time.Minute)
	gateway := newTestClient(t, server.URL, breaker)

	_, err := gateway.CheckPaymentStatus(context.Background(), "pay-123")
	require.Error(t, err)
	assert.Equal(t, StateOpen, breaker.State())

	_, err = gateway.CheckPaymentStatus(context.Background(), "pay-123")
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestHTTPStatusForGatewayCode(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatusForGatewayCode(1001))
	assert.Equal(t, http.StatusConflict, HTTPStatusForGatewayCode(1002))
	assert.Equal(t, http.StatusPaymentRequired, HTTPStatusForGatewayCode(1004))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusForGatewayCode(1006))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatusForGatewayCode(3015))
	assert.Equal(t, http.StatusBadGateway, HTTPStatusForGatewayCode(9999))
}
