package bookings

import (
	"time"
)

// Booking statuses. A booking starts empty in "created", moves to
// "pending_payment" when payment is initiated, and ends in "paid" or
// "cancelled". Failed payments delete the booking outright.
const (
	StatusCreated        = "created"
	StatusPendingPayment = "pending_payment"
	StatusPaid           = "paid"
	StatusCancelled      = "cancelled"
)

type Booking struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	EventID   int64     `gorm:"index;not null" json:"event_id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Status    string    `gorm:"not null;default:created" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

type CreateBookingRequest struct {
	EventID int64 `json:"event_id" binding:"required"`
}

type CreateBookingResponse struct {
	ID int64 `json:"id"`
}

type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

type InitiatePaymentRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// BookingSeat keeps the seat list shape stable for API clients.
type BookingSeat struct {
	ID int64 `json:"id"`
}

// BookingView is one entry of the user's booking list.
type BookingView struct {
	ID      int64         `json:"id"`
	EventID int64         `json:"event_id"`
	Seats   []BookingSeat `json:"seats"`
}

// PaymentAggregate is the booking slice needed to open a payment
// session: the reserved seats' total, their count, and the contact
// email for the payment page.
type PaymentAggregate struct {
	BookingID  int64   `gorm:"column:id"`
	EventTitle string  `gorm:"column:event_title"`
	TotalPrice float64 `gorm:"column:total_price"`
	SeatCount  int     `gorm:"column:seat_count"`
	Email      string  `gorm:"column:email"`
}

// InitiatePaymentResult is returned to the client after the gateway
// session is open.
type InitiatePaymentResult struct {
	Success     bool    `json:"success"`
	PaymentURL  string  `json:"payment_url"`
	PaymentID   string  `json:"payment_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	ExpiresAt   *string `json:"expires_at"`
}

// PaymentStatusResult reports the settlement state of a booking's
// latest payment.
type PaymentStatusResult struct {
	Success       bool   `json:"success"`
	BookingID     int64  `json:"booking_id"`
	PaymentStatus string `json:"payment_status"`
	PaymentID     string `json:"payment_id"`
}
