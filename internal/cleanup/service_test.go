package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/hackload-kz/rorobotics/internal/payments"
	"github.com/hackload-kz/rorobotics/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type mockGateway struct {
	CheckPaymentStatusFunc func(ctx context.Context, paymentID string) (*payments.CheckResponse, error)
	ConfirmPaymentFunc     func(ctx context.Context, paymentID string, amount int64, currency, orderID string) (*payments.ConfirmResponse, error)
}

func (m *mockGateway) CreatePayment(ctx context.Context, params payments.CreatePaymentParams) (*payments.InitResponse, error) {
	return &payments.InitResponse{Success: true}, nil
}

func (m *mockGateway) CheckPaymentStatus(ctx context.Context, paymentID string) (*payments.CheckResponse, error) {
	if m.CheckPaymentStatusFunc != nil {
		return m.CheckPaymentStatusFunc(ctx, paymentID)
	}
	return nil, payments.ErrCircuitOpen
}

func (m *mockGateway) ConfirmPayment(ctx context.Context, paymentID string, amount int64, currency, orderID string) (*payments.ConfirmResponse, error) {
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, paymentID, amount, currency, orderID)
	}
	return &payments.ConfirmResponse{Success: true}, nil
}

func (m *mockGateway) Breaker() *payments.CircuitBreaker {
	return payments.NewCircuitBreaker(5, time.Minute)
}

func newCleanupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&payments.PaymentTransaction{}))
	require.NoError(t, db.Exec(`CREATE TABLE bookings (
		id INTEGER PRIMARY KEY,
		event_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME
	)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE seats (
		id INTEGER PRIMARY KEY,
		event_id INTEGER NOT NULL,
		row INTEGER NOT NULL,
		number INTEGER NOT NULL,
		status TEXT NOT NULL,
		booking_id INTEGER
	)`).Error)

	return db
}

func newCleanupService(db *gorm.DB, gateway payments.Gateway) Service {
	cfg := &config.Config{
		Reaper: config.ReaperConfig{
			Interval:        5 * time.Minute,
			PaymentExpiry:   15 * time.Minute,
			EmptyBookingAge: 2 * time.Hour,
			StaleBookingAge: 30 * time.Minute,
		},
	}
	repo := payments.NewRepository(db)
	lifecycle := payments.NewLifecycle(db, repo, gateway, nil, nil, nil)
	return NewService(db, repo, lifecycle, gateway, nil, cfg)
}

func insertBooking(t *testing.T, db *gorm.DB, id int64, status string, age time.Duration) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO bookings (id, event_id, user_id, status, created_at) VALUES (?, 1, 42, ?, ?)",
		id, status, time.Now().Add(-age)).Error)
}

func insertReservedSeat(t *testing.T, db *gorm.DB, id, bookingID int64) {
	t.Helper()
	require.NoError(t, db.Exec(
		"INSERT INTO seats (id, event_id, row, number, status, booking_id) VALUES (?, 1, 1, ?, 'RESERVED', ?)",
		id, id, bookingID).Error)
}

func TestSweepExpiredPayments(t *testing.T) {
	db := newCleanupTestDB(t)

	cancelled := payments.GatewayStatusCancelled
	gateway := &mockGateway{
		CheckPaymentStatusFunc: func(ctx context.Context, paymentID string) (*payments.CheckResponse, error) {
			return &payments.CheckResponse{Success: true, Status: &cancelled}, nil
		},
	}
	svc := newCleanupService(db, gateway)

	insertBooking(t, db, 7, "pending_payment", time.Hour)
	insertReservedSeat(t, db, 101, 7)
	require.NoError(t, db.Create(&payments.PaymentTransaction{
		BookingID:     7,
		TransactionID: "pay-123",
		Amount:        750,
		Status:        payments.StatusPending,
		CreatedAt:     time.Now().Add(-20 * time.Minute),
	}).Error)

	stats := svc.RunFullCleanup(context.Background())
	assert.Equal(t, 1, stats.ExpiredPayments)

	var transaction payments.PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", "pay-123").First(&transaction).Error)
	assert.Equal(t, payments.StatusExpired, transaction.Status)

	var seatStatus string
	require.NoError(t, db.Table("seats").Select("status").Where("id = 101").Row().Scan(&seatStatus))
	assert.Equal(t, "FREE", seatStatus)

	var bookingCount int64
	require.NoError(t, db.Table("bookings").Count(&bookingCount).Error)
	assert.Equal(t, int64(0), bookingCount)
}

func TestSweepRecoversConfirmedPayment(t *testing.T) {
	db := newCleanupTestDB(t)

	confirmed := payments.GatewayStatusConfirmed
	gateway := &mockGateway{
		CheckPaymentStatusFunc: func(ctx context.Context, paymentID string) (*payments.CheckResponse, error) {
			return &payments.CheckResponse{Success: true, Status: &confirmed}, nil
		},
	}
	svc := newCleanupService(db, gateway)

	insertBooking(t, db, 7, "pending_payment", time.Hour)
	insertReservedSeat(t, db, 101, 7)
	require.NoError(t, db.Create(&payments.PaymentTransaction{
		BookingID:     7,
		TransactionID: "pay-123",
		Amount:        750,
		Status:        payments.StatusPending,
		CreatedAt:     time.Now().Add(-20 * time.Minute),
	}).Error)

	stats := svc.RunFullCleanup(context.Background())
	assert.Equal(t, 1, stats.ExpiredPayments)

	var transaction payments.PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", "pay-123").First(&transaction).Error)
	assert.Equal(t, payments.StatusCompleted, transaction.Status)

	var bookingStatus string
	require.NoError(t, db.Table("bookings").Select("status").Where("id = 7").Row().Scan(&bookingStatus))
	assert.Equal(t, "paid", bookingStatus)

	var seatStatus string
	require.NoError(t, db.Table("seats").Select("status").Where("id = 101").Row().Scan(&seatStatus))
	assert.Equal(t, "SOLD", seatStatus)
}

func TestSweepLeavesFreshPaymentsAlone(t *testing.T) {
	db := newCleanupTestDB(t)
	svc := newCleanupService(db, &mockGateway{})

	insertBooking(t, db, 7, "pending_payment", time.Minute)
	require.NoError(t, db.Create(&payments.PaymentTransaction{
		BookingID:     7,
		TransactionID: "pay-123",
		Amount:        750,
		Status:        payments.StatusPending,
		CreatedAt:     time.Now().Add(-time.Minute),
	}).Error)

	stats := svc.RunFullCleanup(context.Background())
	assert.Equal(t, 0, stats.ExpiredPayments)

	var transaction payments.PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", "pay-123").First(&transaction).Error)
	assert.Equal(t, payments.StatusPending, transaction.Status)
}

func TestSweepEmptyBookings(t *testing.T) {
	db := newCleanupTestDB(t)
	svc := newCleanupService(db, &mockGateway{})

	insertBooking(t, db, 7, "created", 3*time.Hour)  // old and empty, goes
	insertBooking(t, db, 8, "created", time.Minute)  // fresh, stays
	insertBooking(t, db, 9, "created", 3*time.Hour)  // old but has a seat, stays
	insertReservedSeat(t, db, 101, 9)
	require.NoError(t, db.Create(&payments.PaymentTransaction{
		BookingID:     9,
		TransactionID: "pay-9",
		Amount:        750,
		Status:        payments.StatusPending,
	}).Error)

	stats := svc.RunFullCleanup(context.Background())
	assert.Equal(t, 1, stats.EmptyBookings)

	var remaining []int64
	require.NoError(t, db.Table("bookings").Order("id").Pluck("id", &remaining).Error)
	assert.Equal(t, []int64{8, 9}, remaining)
}

func TestSweepStaleBookings(t *testing.T) {
	db := newCleanupTestDB(t)
	svc := newCleanupService(db, &mockGateway{})

	// Reserved seats, no payment, past the stale window.
	insertBooking(t, db, 7, "created", time.Hour)
	insertReservedSeat(t, db, 101, 7)
	insertReservedSeat(t, db, 102, 7)

	// Same shape but with a payment attached, must survive.
	insertBooking(t, db, 8, "created", time.Hour)
	insertReservedSeat(t, db, 103, 8)
	require.NoError(t, db.Create(&payments.PaymentTransaction{
		BookingID:     8,
		TransactionID: "pay-8",
		Amount:        750,
		Status:        payments.StatusPending,
	}).Error)

	stats := svc.RunFullCleanup(context.Background())
	assert.Equal(t, 1, stats.StaleBookings)

	var remaining []int64
	require.NoError(t, db.Table("bookings").Order("id").Pluck("id", &remaining).Error)
	assert.Equal(t, []int64{8}, remaining)

	var freeCount int64
	require.NoError(t, db.Table("seats").Where("status = 'FREE' AND booking_id IS NULL").Count(&freeCount).Error)
	assert.Equal(t, int64(2), freeCount)

	var seat103 string
	require.NoError(t, db.Table("seats").Select("status").Where("id = 103").Row().Scan(&seat103))
	assert.Equal(t, "RESERVED", seat103)
}

func TestSeatIDFromLockKey(t *testing.T) {
	id, ok := seatIDFromLockKey("seat:123:reserved")
	assert.True(t, ok)
	assert.Equal(t, int64(123), id)

	id, ok = seatIDFromLockKey("seat:456")
	assert.True(t, ok)
	assert.Equal(t, int64(456), id)

	_, ok = seatIDFromLockKey("search:events:q=&date=&p=1&ps=20")
	assert.False(t, ok)

	_, ok = seatIDFromLockKey("seat:abc:reserved")
	assert.False(t, ok)
}
