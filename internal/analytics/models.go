package analytics

// EventAnalytics is the per-event sales breakdown. Revenue is
// formatted with two decimals to keep the JSON shape stable across
// clients.
type EventAnalytics struct {
	EventID       int64  `json:"event_id"`
	TotalSeats    int    `json:"total_seats"`
	SoldSeats     int    `json:"sold_seats"`
	ReservedSeats int    `json:"reserved_seats"`
	FreeSeats     int    `json:"free_seats"`
	TotalRevenue  string `json:"total_revenue"`
	BookingsCount int    `json:"bookings_count"`
}

// seatBreakdown is the raw aggregate row before formatting.
type seatBreakdown struct {
	TotalSeats    int     `gorm:"column:total_seats"`
	SoldSeats     int     `gorm:"column:sold_seats"`
	ReservedSeats int     `gorm:"column:reserved_seats"`
	FreeSeats     int     `gorm:"column:free_seats"`
	TotalRevenue  float64 `gorm:"column:total_revenue"`
	BookingsCount int     `gorm:"column:bookings_count"`
}
