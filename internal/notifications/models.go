package notifications

import (
	"encoding/json"
	"strconv"
	"time"
)

// Notification types published to the booking events topic.
const (
	TypeBookingConfirmed = "booking-confirmed"
	TypePaymentFailed    = "payment-failed"
)

// BookingNotification is the message consumers receive when a booking
// settles one way or the other.
type BookingNotification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	BookingID int64     `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	SeatIDs   []int64   `json:"seat_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *BookingNotification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// PartitionKey keeps one user's notifications in order.
func (n *BookingNotification) PartitionKey() string {
	return strconv.FormatInt(n.UserID, 10)
}
