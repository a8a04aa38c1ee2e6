package seats

// Durable seat statuses. Legacy rows may still carry AVAILABLE; reads
// normalize it to FREE and writes accept either as free.
const (
	StatusFree     = "FREE"
	StatusReserved = "RESERVED"
	StatusSold     = "SOLD"

	// legacy alias for FREE
	statusAvailable = "AVAILABLE"

	// Display-only status for seats whose lock key is live. Never
	// written to the durable store.
	StatusSelected = "SELECTED"
)

// Seat is one sellable place at an event.
type Seat struct {
	ID        int64    `json:"id" gorm:"primaryKey"`
	EventID   int64    `json:"event_id" gorm:"index;not null"`
	Row       int      `json:"row" gorm:"column:row"`
	Number    int      `json:"number"`
	Status    string   `json:"status" gorm:"default:FREE"`
	BookingID *int64   `json:"booking_id,omitempty" gorm:"index"`
	Category  *string  `json:"category,omitempty"`
	Price     *float64 `json:"price,omitempty"`
}

func (Seat) TableName() string {
	return "seats"
}

// NormalizedStatus maps legacy AVAILABLE to FREE.
func (s *Seat) NormalizedStatus() string {
	if s.Status == statusAvailable {
		return StatusFree
	}
	return s.Status
}

// ListQuery carries the /api/seats query parameters.
type ListQuery struct {
	EventID  int64
	Page     int
	PageSize int
	Row      int    // 0 means any row
	Status   string // empty means any status
}

// Normalize applies defaults and caps.
func (q *ListQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
}

// SeatView is the wire shape for seat listings: the durable row plus
// the display status after the lock overlay.
type SeatView struct {
	ID        int64    `json:"id"`
	EventID   int64    `json:"event_id"`
	Row       int      `json:"row"`
	Number    int      `json:"number"`
	Status    string   `json:"status"`
	BookingID *int64   `json:"booking_id,omitempty"`
	Category  *string  `json:"category,omitempty"`
	Price     *float64 `json:"price,omitempty"`
}

// SelectSeatRequest is the PATCH /api/seats/select body.
type SelectSeatRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
	SeatID    int64 `json:"seat_id" binding:"required"`
}

// ReleaseSeatRequest is the PATCH /api/seats/release body.
type ReleaseSeatRequest struct {
	SeatID int64 `json:"seat_id" binding:"required"`
}
