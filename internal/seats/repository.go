package seats

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Seat, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Seat, error)

	// GetBooking reads the owning side of the seat relation without
	// importing the bookings package.
	GetBooking(ctx context.Context, bookingID int64) (*BookingRow, error)

	// Reserve is the authoritative FREE -> RESERVED transition. Returns
	// false when the seat was not free.
	Reserve(ctx context.Context, seatID, bookingID int64) (bool, error)

	// Free is the RESERVED -> FREE transition. Returns false when the
	// seat was not reserved.
	Free(ctx context.Context, seatID int64) (bool, error)
}

// BookingRow is the slice of a booking the seat engine needs for
// ownership checks.
type BookingRow struct {
	ID      int64  `gorm:"column:id"`
	UserID  int64  `gorm:"column:user_id"`
	EventID int64  `gorm:"column:event_id"`
	Status  string `gorm:"column:status"`
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&seat).Error
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID int64) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("row ASC, number ASC").
		Find(&seats).Error
	return seats, err
}

func (r *repository) GetBooking(ctx context.Context, bookingID int64) (*BookingRow, error) {
	var booking BookingRow
	err := r.db.WithContext(ctx).
		Table("bookings").
		Select("id, user_id, event_id, status").
		Where("id = ?", bookingID).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) Reserve(ctx context.Context, seatID, bookingID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id = ? AND status IN ?", seatID, []string{StatusFree, statusAvailable}).
		Updates(map[string]interface{}{
			"status":     StatusReserved,
			"booking_id": bookingID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) Free(ctx context.Context, seatID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id = ? AND status = ?", seatID, StatusReserved).
		Updates(map[string]interface{}{
			"status":     StatusFree,
			"booking_id": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
