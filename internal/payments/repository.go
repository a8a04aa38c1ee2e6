package payments

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, transaction *PaymentTransaction) error

	// LatestByBooking returns the most recent transaction for a booking
	// owned by the given user.
	LatestByBooking(ctx context.Context, bookingID, userID int64) (*PaymentTransaction, error)

	// ResolveByPaymentID finds the transaction and its booking context
	// for an inbound gateway notification.
	ResolveByPaymentID(ctx context.Context, paymentID string) (*TransactionContext, error)

	// ListPendingOlderThan returns pending transactions created before
	// the cutoff, joined with their booking context.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]TransactionContext, error)
}

// TransactionContext joins a transaction with the booking fields the
// lifecycle handlers need.
type TransactionContext struct {
	TransactionID string `gorm:"column:transaction_id"`
	Status        string `gorm:"column:status"`
	BookingID     int64  `gorm:"column:booking_id"`
	EventID       int64  `gorm:"column:event_id"`
	UserID        int64  `gorm:"column:user_id"`
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, transaction *PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) LatestByBooking(ctx context.Context, bookingID, userID int64) (*PaymentTransaction, error) {
	var transaction PaymentTransaction
	err := r.db.WithContext(ctx).
		Joins("JOIN bookings ON bookings.id = payment_transactions.booking_id").
		Where("payment_transactions.booking_id = ? AND bookings.user_id = ?", bookingID, userID).
		Order("payment_transactions.created_at DESC").
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) ResolveByPaymentID(ctx context.Context, paymentID string) (*TransactionContext, error) {
	var tc TransactionContext
	err := r.db.WithContext(ctx).
		Table("payment_transactions").
		Select("payment_transactions.transaction_id, payment_transactions.status, payment_transactions.booking_id, bookings.event_id, bookings.user_id").
		Joins("JOIN bookings ON bookings.id = payment_transactions.booking_id").
		Where("payment_transactions.transaction_id = ?", paymentID).
		First(&tc).Error
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

func (r *repository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]TransactionContext, error) {
	var rows []TransactionContext
	err := r.db.WithContext(ctx).
		Table("payment_transactions").
		Select("payment_transactions.transaction_id, payment_transactions.status, payment_transactions.booking_id, bookings.event_id, bookings.user_id").
		Joins("JOIN bookings ON bookings.id = payment_transactions.booking_id").
		Where("payment_transactions.status = ? AND payment_transactions.created_at < ?", StatusPending, cutoff).
		Find(&rows).Error
	return rows, err
}
