package payments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/pkg/logger"
	"github.com/hackload-kz/rorobotics/pkg/metrics"
)

// ErrCircuitOpen is returned without touching the network while the
// breaker is open.
var ErrCircuitOpen = errors.New("payment gateway circuit breaker is open")

// Gateway is the outbound payment provider surface.
type Gateway interface {
	// CreatePayment opens a payment session and returns the redirect URL.
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*InitResponse, error)

	// CheckPaymentStatus asks the provider for the current state of a payment.
	CheckPaymentStatus(ctx context.Context, paymentID string) (*CheckResponse, error)

	// ConfirmPayment captures a payment stuck in AUTHORIZED.
	ConfirmPayment(ctx context.Context, paymentID string, amount int64, currency, orderID string) (*ConfirmResponse, error)

	// Breaker exposes the circuit breaker for status reporting.
	Breaker() *CircuitBreaker
}

type client struct {
	baseURL    string
	teamSlug   string
	password   string
	currency   string
	successURL string
	failURL    string
	webhookURL string

	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewClient(cfg *config.Config, breaker *CircuitBreaker) Gateway {
	return &client{
		baseURL:    cfg.Payment.BaseURL,
		teamSlug:   cfg.Payment.TeamSlug,
		password:   cfg.Payment.Password,
		currency:   cfg.Payment.Currency,
		successURL: cfg.PaymentSuccessURL(),
		failURL:    cfg.PaymentFailURL(),
		webhookURL: cfg.PaymentWebhookURL(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
	}
}

func (c *client) Breaker() *CircuitBreaker {
	return c.breaker
}

func (c *client) CreatePayment(ctx context.Context, params CreatePaymentParams) (*InitResponse, error) {
	req := initRequest{
		TeamSlug:        c.teamSlug,
		Token:           c.initToken(params.Amount, params.OrderID),
		Amount:          params.Amount,
		OrderID:         params.OrderID,
		Currency:        c.currency,
		Description:     params.Description,
		SuccessURL:      c.successURL,
		FailURL:         c.failURL,
		NotificationURL: c.webhookURL,
		Email:           params.Email,
		Language:        "ru",
	}

	var resp InitResponse
	if err := c.execute(ctx, "init", "/api/v1/PaymentInit/init", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) CheckPaymentStatus(ctx context.Context, paymentID string) (*CheckResponse, error) {
	req := checkRequest{
		TeamSlug:  c.teamSlug,
		Token:     c.checkToken(paymentID),
		PaymentID: paymentID,
	}

	var resp CheckResponse
	if err := c.execute(ctx, "check", "/api/v1/PaymentCheck/check", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) ConfirmPayment(ctx context.Context, paymentID string, amount int64, currency, orderID string) (*ConfirmResponse, error) {
	req := confirmRequest{
		TeamSlug:  c.teamSlug,
		Token:     c.initToken(amount, orderID),
		PaymentID: paymentID,
		Amount:    amount,
		Currency:  currency,
		OrderID:   orderID,
	}

	var resp ConfirmResponse
	if err := c.execute(ctx, "confirm", "/api/v1/PaymentConfirm/confirm", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// execute wraps one gateway round trip with the circuit breaker.
// Transport and decode failures trip the breaker; a well-formed error
// response from the provider does not.
func (c *client) execute(ctx context.Context, operation, path string, body, dest interface{}) error {
	if !c.breaker.CanExecute() {
		metrics.PaymentCalls.WithLabelValues(operation, "circuit_open").Inc()
		return ErrCircuitOpen
	}

	err := c.postJSON(ctx, path, body, dest)
	if err != nil {
		c.breaker.RecordFailure()
		metrics.PaymentCalls.WithLabelValues(operation, "error").Inc()
		logger.GetDefault().Error("payment gateway call failed",
			"operation", operation, "error", err)
		return err
	}

	c.breaker.RecordSuccess()
	metrics.PaymentCalls.WithLabelValues(operation, "ok").Inc()
	return nil
}

func (c *client) postJSON(ctx context.Context, path string, body, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// initToken signs init and confirm requests:
// sha256(amount + currency + orderId + password + teamSlug).
func (c *client) initToken(amount int64, orderID string) string {
	return sha256Hex(fmt.Sprintf("%d%s%s%s%s", amount, c.currency, orderID, c.password, c.teamSlug))
}

// checkToken signs check requests:
// sha256(paymentId + password + teamSlug).
func (c *client) checkToken(paymentID string) string {
	return sha256Hex(paymentID + c.password + c.teamSlug)
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HTTPStatusForGatewayCode maps provider error codes onto the HTTP
// statuses the API reports to callers.
func HTTPStatusForGatewayCode(code int) int {
	switch code {
	case 1001:
		return http.StatusUnauthorized
	case 1002:
		return http.StatusConflict
	case 1004:
		return http.StatusPaymentRequired
	case 1006:
		return http.StatusBadRequest
	case 3015:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
