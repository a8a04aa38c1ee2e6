package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type mockGateway struct {
	CreatePaymentFunc      func(ctx context.Context, params CreatePaymentParams) (*InitResponse, error)
	CheckPaymentStatusFunc func(ctx context.Context, paymentID string) (*CheckResponse, error)
	ConfirmPaymentFunc     func(ctx context.Context, paymentID string, amount int64, currency, orderID string) (*ConfirmResponse, error)
}

func (m *mockGateway) CreatePayment(ctx context.Context, params CreatePaymentParams) (*InitResponse, error) {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, params)
	}
	return &InitResponse{Success: true}, nil
}

func (m *mockGateway) CheckPaymentStatus(ctx context.Context, paymentID string) (*CheckResponse, error) {
	if m.CheckPaymentStatusFunc != nil {
		return m.CheckPaymentStatusFunc(ctx, paymentID)
	}
	return &CheckResponse{Success: true}, nil
}

func (m *mockGateway) ConfirmPayment(ctx context.Context, paymentID string, amount int64, currency, orderID string) (*ConfirmResponse, error) {
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, paymentID, amount, currency, orderID)
	}
	return &ConfirmResponse{Success: true}, nil
}

func (m *mockGateway) Breaker() *CircuitBreaker {
	return NewCircuitBreaker(5, time.Minute)
}

type mockLockReleaser struct {
	released [][]int64
}

func (m *mockLockReleaser) ReleaseMany(ctx context.Context, seatIDs []int64) error {
	m.released = append(m.released, seatIDs)
	return nil
}

func newLifecycleTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&PaymentTransaction{}))
	require.NoError(t, db.Exec(`CREATE TABLE bookings (
		id INTEGER PRIMARY KEY,
		event_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
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

func seedPendingPayment(t *testing.T, db *gorm.DB) *TransactionContext {
	t.Helper()

	require.NoError(t, db.Exec(
		"INSERT INTO bookings (id, event_id, user_id, status) VALUES (7, 1, 42, ?)",
		bookingPendingPayment).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO seats (id, event_id, row, number, status, booking_id) VALUES "+
			"(101, 1, 1, 1, 'RESERVED', 7), (102, 1, 1, 2, 'RESERVED', 7), (103, 1, 1, 3, 'FREE', NULL)").Error)
	require.NoError(t, db.Create(&PaymentTransaction{
		BookingID:     7,
		TransactionID: "pay-123",
		Amount:        1500,
		Status:        StatusPending,
	}).Error)

	return &TransactionContext{
		TransactionID: "pay-123",
		Status:        StatusPending,
		BookingID:     7,
		EventID:       1,
		UserID:        42,
	}
}

func seatStatus(t *testing.T, db *gorm.DB, id int64) string {
	t.Helper()
	var status string
	require.NoError(t, db.Table("seats").Select("status").Where("id = ?", id).Row().Scan(&status))
	return status
}

func TestProcessSuccessfulPayment(t *testing.T) {
	db := newLifecycleTestDB(t)
	tc := seedPendingPayment(t, db)
	locks := &mockLockReleaser{}
	lc := NewLifecycle(db, NewRepository(db), &mockGateway{}, locks, nil, nil)

	require.NoError(t, lc.ProcessSuccessfulPayment(context.Background(), tc))

	var transaction PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", "pay-123").First(&transaction).Error)
	assert.Equal(t, StatusCompleted, transaction.Status)

	var bookingStatus string
	require.NoError(t, db.Table("bookings").Select("status").Where("id = ?", 7).Row().Scan(&bookingStatus))
	assert.Equal(t, bookingPaid, bookingStatus)

	assert.Equal(t, "SOLD", seatStatus(t, db, 101))
	assert.Equal(t, "SOLD", seatStatus(t, db, 102))
	assert.Equal(t, "FREE", seatStatus(t, db, 103))

	require.Len(t, locks.released, 1)
	assert.ElementsMatch(t, []int64{101, 102}, locks.released[0])
}

func TestProcessSuccessfulPaymentReplayIsNoOp(t *testing.T) {
	db := newLifecycleTestDB(t)
	tc := seedPendingPayment(t, db)
	locks := &mockLockReleaser{}
	lc := NewLifecycle(db, NewRepository(db), &mockGateway{}, locks, nil, nil)

	require.NoError(t, lc.ProcessSuccessfulPayment(context.Background(), tc))
	require.NoError(t, lc.ProcessSuccessfulPayment(context.Background(), tc))

	var transaction PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", "pay-123").First(&transaction).Error)
	assert.Equal(t, StatusCompleted, transaction.Status)
	assert.Equal(t, "SOLD", seatStatus(t, db, 101))

	// The replay found no reserved seats, so no locks to release.
	require.Len(t, locks.released, 1)
}

func TestProcessFailedPaymentFreesSeatsAndDeletesBooking(t *testing.T) {
	db := newLifecycleTestDB(t)
	tc := seedPendingPayment(t, db)
	locks := &mockLockReleaser{}
	lc := NewLifecycle(db, NewRepository(db), &mockGateway{}, locks, nil, nil)

	require.NoError(t, lc.ProcessFailedPayment(context.Background(), tc))

	var transaction PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", "pay-123").First(&transaction).Error)
	assert.Equal(t, StatusFailed, transaction.Status)

	assert.Equal(t, "FREE", seatStatus(t, db, 101))
	assert.Equal(t, "FREE", seatStatus(t, db, 102))

	var bookingCount int64
	require.NoError(t, db.Table("bookings").Where("id = ?", 7).Count(&bookingCount).Error)
	assert.Equal(t, int64(0), bookingCount)

	require.Len(t, locks.released, 1)
	assert.ElementsMatch(t, []int64{101, 102}, locks.released[0])
}

func TestCleanupExpiredPaymentMarksExpired(t *testing.T) {
	db := newLifecycleTestDB(t)
	tc := seedPendingPayment(t, db)
	lc := NewLifecycle(db, NewRepository(db), &mockGateway{}, &mockLockReleaser{}, nil, nil)

	require.NoError(t, lc.CleanupExpiredPayment(context.Background(), tc))

	var transaction PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", "pay-123").First(&transaction).Error)
	assert.Equal(t, StatusExpired, transaction.Status)
	assert.Equal(t, "FREE", seatStatus(t, db, 101))
}

func TestHandleWebhookConfirmed(t *testing.T) {
	db := newLifecycleTestDB(t)
	seedPendingPayment(t, db)
	lc := NewLifecycle(db, NewRepository(db), &mockGateway{}, &mockLockReleaser{}, nil, nil)

	require.NoError(t, lc.HandleWebhook(context.Background(), "pay-123", GatewayStatusConfirmed))

	var bookingStatus string
	require.NoError(t, db.Table("bookings").Select("status").Where("id = ?", 7).Row().Scan(&bookingStatus))
	assert.Equal(t, bookingPaid, bookingStatus)
}

func TestHandleWebhookAuthorizedConfirmsThenResolves(t *testing.T) {
	db := newLifecycleTestDB(t)
	seedPendingPayment(t, db)

	amount := int64(150000)
	currency := "KZT"
	orderID := "booking-7-1700000000"
	authorized := GatewayStatusAuthorized

	confirmed := false
	gateway := &mockGateway{
		CheckPaymentStatusFunc: func(ctx context.Context, paymentID string) (*CheckResponse, error) {
			return &CheckResponse{
				Success:  true,
				Status:   &authorized,
				Amount:   &amount,
				Currency: &currency,
				OrderID:  &orderID,
			}, nil
		},
		ConfirmPaymentFunc: func(ctx context.Context, paymentID string, amt int64, cur, oid string) (*ConfirmResponse, error) {
			confirmed = true
			assert.Equal(t, "pay-123", paymentID)
			assert.Equal(t, amount, amt)
			return &ConfirmResponse{Success: true}, nil
		},
	}

	lc := NewLifecycle(db, NewRepository(db), gateway, &mockLockReleaser{}, nil, nil)
	require.NoError(t, lc.HandleWebhook(context.Background(), "pay-123", GatewayStatusAuthorized))

	assert.True(t, confirmed)

	var bookingStatus string
	require.NoError(t, db.Table("bookings").Select("status").Where("id = ?", 7).Row().Scan(&bookingStatus))
	assert.Equal(t, bookingPaid, bookingStatus)
}

func TestHandleWebhookFailedStatuses(t *testing.T) {
	for _, status := range []string{GatewayStatusCancelled, GatewayStatusFailed, GatewayStatusExpired, GatewayStatusRefunded} {
		t.Run(status, func(t *testing.T) {
			db := newLifecycleTestDB(t)
			seedPendingPayment(t, db)
			lc := NewLifecycle(db, NewRepository(db), &mockGateway{}, &mockLockReleaser{}, nil, nil)

			require.NoError(t, lc.HandleWebhook(context.Background(), "pay-123", status))

			var bookingCount int64
			require.NoError(t, db.Table("bookings").Where("id = ?", 7).Count(&bookingCount).Error)
			assert.Equal(t, int64(0), bookingCount)
			assert.Equal(t, "FREE", seatStatus(t, db, 101))
		})
	}
}

func TestHandleWebhookUnknownPaymentIsDropped(t *testing.T) {
	db := newLifecycleTestDB(t)
	lc := NewLifecycle(db, NewRepository(db), &mockGateway{}, &mockLockReleaser{}, nil, nil)

	assert.NoError(t, lc.HandleWebhook(context.Background(), "pay-missing", GatewayStatusConfirmed))
}

func TestHandleWebhookNewStatusIsNoOp(t *testing.T) {
	db := newLifecycleTestDB(t)
	seedPendingPayment(t, db)
	lc := NewLifecycle(db, NewRepository(db), &mockGateway{}, &mockLockReleaser{}, nil, nil)

	require.NoError(t, lc.HandleWebhook(context.Background(), "pay-123", GatewayStatusNew))

	var transaction PaymentTransaction
	require.NoError(t, db.Where("transaction_id = ?", "pay-123").First(&transaction).Error)
	assert.Equal(t, StatusPending, transaction.Status)
}
