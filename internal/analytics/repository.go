package analytics

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	EventExists(ctx context.Context, eventID int64) (bool, error)

	// SeatBreakdown aggregates seat counts and sold revenue for an
	// event in one pass.
	SeatBreakdown(ctx context.Context, eventID int64) (*seatBreakdown, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) EventExists(ctx context.Context, eventID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("events").
		Where("id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SeatBreakdown(ctx context.Context, eventID int64) (*seatBreakdown, error) {
	var row seatBreakdown
	err := r.db.WithContext(ctx).
		Table("seats").
		Select(`COUNT(seats.id) AS total_seats,
			COALESCE(SUM(CASE WHEN seats.status = 'SOLD' THEN 1 ELSE 0 END), 0) AS sold_seats,
			COALESCE(SUM(CASE WHEN seats.status = 'RESERVED' THEN 1 ELSE 0 END), 0) AS reserved_seats,
			COALESCE(SUM(CASE WHEN seats.status IN ('FREE', 'AVAILABLE') THEN 1 ELSE 0 END), 0) AS free_seats,
			COALESCE(SUM(CASE WHEN seats.status = 'SOLD' THEN seats.price ELSE 0 END), 0) AS total_revenue,
			COUNT(DISTINCT CASE WHEN bookings.status = 'paid' THEN bookings.id END) AS bookings_count`).
		Joins("LEFT JOIN bookings ON bookings.id = seats.booking_id AND bookings.status = 'paid'").
		Where("seats.event_id = ?", eventID).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
