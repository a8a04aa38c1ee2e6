package payments

import (
	"time"
)

// Local transaction statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
)

// Gateway-side payment statuses as reported by check calls and webhooks.
const (
	GatewayStatusNew        = "NEW"
	GatewayStatusAuthorized = "AUTHORIZED"
	GatewayStatusConfirmed  = "CONFIRMED"
	GatewayStatusCancelled  = "CANCELLED"
	GatewayStatusFailed     = "FAILED"
	GatewayStatusExpired    = "EXPIRED"
	GatewayStatusRefunded   = "REFUNDED"
)

// PaymentTransaction links a booking to a gateway payment session.
type PaymentTransaction struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	BookingID     int64     `gorm:"index;not null" json:"booking_id"`
	TransactionID string    `gorm:"uniqueIndex;not null" json:"transaction_id"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Status        string    `gorm:"not null;default:pending" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// Wire types for the gateway API. Field names and casing follow the
// provider's contract exactly.

type initRequest struct {
	TeamSlug        string `json:"teamSlug"`
	Token           string `json:"token"`
	Amount          int64  `json:"amount"`
	OrderID         string `json:"orderId"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	SuccessURL      string `json:"successURL"`
	FailURL         string `json:"failURL"`
	NotificationURL string `json:"notificationURL"`
	Email           string `json:"email,omitempty"`
	Language        string `json:"language"`
}

type InitResponse struct {
	Success    bool    `json:"success"`
	PaymentID  *string `json:"paymentId"`
	PaymentURL *string `json:"paymentURL"`
	ExpiresAt  *string `json:"expiresAt"`
	Code       *int    `json:"code"`
	Message    *string `json:"message"`
}

type checkRequest struct {
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token"`
	PaymentID string `json:"paymentId"`
}

type CheckResponse struct {
	Success   bool    `json:"success"`
	Status    *string `json:"status"`
	PaymentID *string `json:"paymentId"`
	Amount    *int64  `json:"amount"`
	Currency  *string `json:"currency"`
	OrderID   *string `json:"orderId"`
	Code      *int    `json:"code"`
	Message   *string `json:"message"`
}

type confirmRequest struct {
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token"`
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	OrderID   string `json:"orderId"`
}

type ConfirmResponse struct {
	Success bool    `json:"success"`
	Code    *int    `json:"code"`
	Message *string `json:"message"`
}

// CreatePaymentParams carries everything the init call needs beyond
// static client configuration.
type CreatePaymentParams struct {
	Amount      int64
	OrderID     string
	Description string
	Email       string
}

// WebhookPayload is the notification body the gateway posts back.
type WebhookPayload struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}
