package bookings

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]Booking, error)

	// SeatIDsByBooking maps booking ids to the seat ids attached to
	// them, in seat id order.
	SeatIDsByBooking(ctx context.Context, bookingIDs []int64) (map[int64][]int64, error)

	// EventExists guards booking creation against dangling event ids.
	EventExists(ctx context.Context, eventID int64) (bool, error)

	// PaymentAggregate loads the payment context for a booking owned by
	// the user. Returns gorm.ErrRecordNotFound when the booking is
	// missing, foreign, or has no reserved seats.
	PaymentAggregate(ctx context.Context, bookingID, userID int64) (*PaymentAggregate, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]Booking, error) {
	var list []Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *repository) SeatIDsByBooking(ctx context.Context, bookingIDs []int64) (map[int64][]int64, error) {
	result := make(map[int64][]int64, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ID        int64 `gorm:"column:id"`
		BookingID int64 `gorm:"column:booking_id"`
	}
	err := r.db.WithContext(ctx).
		Table("seats").
		Select("id, booking_id").
		Where("booking_id IN ?", bookingIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.BookingID] = append(result[row.BookingID], row.ID)
	}
	return result, nil
}

func (r *repository) EventExists(ctx context.Context, eventID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("events").
		Where("id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) PaymentAggregate(ctx context.Context, bookingID, userID int64) (*PaymentAggregate, error) {
	var agg PaymentAggregate
	err := r.db.WithContext(ctx).
		Table("bookings").
		Select("bookings.id, events.title AS event_title, COALESCE(SUM(seats.price), 0) AS total_price, COUNT(seats.id) AS seat_count, users.email").
		Joins("JOIN events ON events.id = bookings.event_id").
		Joins("JOIN users ON users.user_id = bookings.user_id").
		Joins("LEFT JOIN seats ON seats.booking_id = bookings.id AND seats.status = 'RESERVED'").
		Where("bookings.id = ? AND bookings.user_id = ?", bookingID, userID).
		Group("bookings.id, events.title, users.email").
		Having("COUNT(seats.id) > 0").
		Take(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
