package bookings

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
	CreatePaymentFunc      func(ctx context.Context, params payments.CreatePaymentParams) (*payments.InitResponse, error)
	CheckPaymentStatusFunc func(ctx context.Context, paymentID string) (*payments.CheckResponse, error)
	ConfirmPaymentFunc     func(ctx context.Context, paymentID string, amount int64, currency, orderID string) (*payments.ConfirmResponse, error)
}

func (m *mockGateway) CreatePayment(ctx context.Context, params payments.CreatePaymentParams) (*payments.InitResponse, error) {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, params)
	}
	paymentID := "pay-123"
	paymentURL := "https://pay.example/pay-123"
	return &payments.InitResponse{Success: true, PaymentID: &paymentID, PaymentURL: &paymentURL}, nil
}

func (m *mockGateway) CheckPaymentStatus(ctx context.Context, paymentID string) (*payments.CheckResponse, error) {
	if m.CheckPaymentStatusFunc != nil {
		return m.CheckPaymentStatusFunc(ctx, paymentID)
	}
	return &payments.CheckResponse{Success: true}, nil
}

func (m *mockGateway) ConfirmPayment(ctx context.Context, paymentID string, amount int64, currency, orderID string) (*payments.ConfirmResponse, error) {
	if m.ConfirmPaymentFunc != nil {
		return m.ConfirmPaymentFunc(ctx, paymentID, amount, currency, orderID)
	}
	return &payments.ConfirmResponse{Success: true}, nil
}

func (m *mockGateway) Breaker() *payments.CircuitBreaker {
	return payments.NewCircuitBreaker(5, 0)
}

type mockLocker struct {
	released [][]int64
}

func (m *mockLocker) Acquire(ctx context.Context, seatID, userID int64, ttl time.Duration) (bool, error) {
	return true, nil
}

func (m *mockLocker) Release(ctx context.Context, seatID int64) error {
	return nil
}

func (m *mockLocker) ReleaseMany(ctx context.Context, seatIDs []int64) error {
	m.released = append(m.released, seatIDs)
	return nil
}

func (m *mockLocker) Held(ctx context.Context, seatIDs []int64) (map[int64]bool, error) {
	return map[int64]bool{}, nil
}

func newBookingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Booking{}, &payments.PaymentTransaction{}))
	require.NoError(t, db.Exec(`CREATE TABLE events (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY,
		email TEXT NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE seats (
		id INTEGER PRIMARY KEY,
		event_id INTEGER NOT NULL,
		row INTEGER NOT NULL,
		number INTEGER NOT NULL,
		status TEXT NOT NULL,
		booking_id INTEGER,
		price REAL
	)`).Error)

	require.NoError(t, db.Exec("INSERT INTO events (id, title) VALUES (1, 'Concert')").Error)
	require.NoError(t, db.Exec("INSERT INTO users (user_id, email) VALUES (42, 'user@example.com')").Error)

	return db
}

func newBookingService(db *gorm.DB, gateway payments.Gateway, locker *mockLocker) Service {
	cfg := &config.Config{
		Payment: config.PaymentConfig{Currency: "KZT"},
	}
	return NewService(db, NewRepository(db), payments.NewRepository(db), gateway, locker, nil, cfg)
}

func TestCreateBooking(t *testing.T) {
	db := newBookingTestDB(t)
	svc := newBookingService(db, &mockGateway{}, &mockLocker{})

	booking, err := svc.CreateBooking(context.Background(), 42, 1)
	require.NoError(t, err)

	assert.NotZero(t, booking.ID)
	assert.Equal(t, StatusCreated, booking.Status)
}

func TestCreateBookingUnknownEvent(t *testing.T) {
	db := newBookingTestDB(t)
	svc := newBookingService(db, &mockGateway{}, &mockLocker{})

	_, err := svc.CreateBooking(context.Background(), 42, 999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGetUserBookingsGroupsSeats(t *testing.T) {
	db := newBookingTestDB(t)
	svc := newBookingService(db, &mockGateway{}, &mockLocker{})

	require.NoError(t, db.Create(&Booking{ID: 7, EventID: 1, UserID: 42, Status: StatusCreated}).Error)
	require.NoError(t, db.Create(&Booking{ID: 8, EventID: 1, UserID: 42, Status: StatusCreated}).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO seats (id, event_id, row, number, status, booking_id, price) VALUES "+
			"(101, 1, 1, 1, 'RESERVED', 7, 750), (102, 1, 1, 2, 'RESERVED', 7, 750)").Error)

	views, err := svc.GetUserBookings(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[int64]BookingView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Equal(t, []BookingSeat{{ID: 101}, {ID: 102}}, byID[7].Seats)
	assert.Empty(t, byID[8].Seats)
}

func TestCancelBookingFreesSeats(t *testing.T) {
	db := newBookingTestDB(t)
	locker := &mockLocker{}
	svc := newBookingService(db, &mockGateway{}, locker)

	require.NoError(t, db.Create(&Booking{ID: 7, EventID: 1, UserID: 42, Status: StatusCreated}).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO seats (id, event_id, row, number, status, booking_id, price) VALUES "+
			"(101, 1, 1, 1, 'RESERVED', 7, 750), (102, 1, 1, 2, 'SOLD', 7, 750)").Error)

	require.NoError(t, svc.CancelBooking(context.Background(), 42, 7))

	var booking Booking
	require.NoError(t, db.First(&booking, 7).Error)
	assert.Equal(t, StatusCancelled, booking.Status)

	var freeCount int64
	require.NoError(t, db.Table("seats").Where("status = 'FREE' AND booking_id IS NULL").Count(&freeCount).Error)
	assert.Equal(t, int64(1), freeCount)

	require.Len(t, locker.released, 1)
	assert.Equal(t, []int64{101}, locker.released[0])
}

func TestCancelBookingRefusesPaid(t *testing.T) {
	db := newBookingTestDB(t)
	svc := newBookingService(db, &mockGateway{}, &mockLocker{})

	require.NoError(t, db.Create(&Booking{ID: 7, EventID: 1, UserID: 42, Status: StatusPaid}).Error)

	err := svc.CancelBooking(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrBookingPaid)
}

func TestCancelBookingOwnership(t *testing.T) {
	db := newBookingTestDB(t)
	svc := newBookingService(db, &mockGateway{}, &mockLocker{})

	require.NoError(t, db.Create(&Booking{ID: 7, EventID: 1, UserID: 42, Status: StatusCreated}).Error)

	assert.ErrorIs(t, svc.CancelBooking(context.Background(), 99, 7), ErrNotOwner)
	assert.ErrorIs(t, svc.CancelBooking(context.Background(), 42, 1000), ErrBookingNotFound)
}

func TestInitiatePayment(t *testing.T) {
	db := newBookingTestDB(t)

	var gotParams payments.CreatePaymentParams
	gateway := &mockGateway{
		CreatePaymentFunc: func(ctx context.Context, params payments.CreatePaymentParams) (*payments.InitResponse, error) {
			gotParams = params
			paymentID := "pay-123"
			paymentURL := "https://pay.example/pay-123"
			return &payments.InitResponse{Success: true, PaymentID: &paymentID, PaymentURL: &paymentURL}, nil
		},
	}
	svc := newBookingService(db, gateway, &mockLocker{})

	require.NoError(t, db.Create(&Booking{ID: 7, EventID: 1, UserID: 42, Status: StatusCreated}).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO seats (id, event_id, row, number, status, booking_id, price) VALUES "+
			"(101, 1, 1, 1, 'RESERVED', 7, 750), (102, 1, 1, 2, 'RESERVED', 7, 750)").Error)

	result, err := svc.InitiatePayment(context.Background(), 42, 7)
	require.NoError(t, err)

	assert.Equal(t, "pay-123", result.PaymentID)
	assert.Equal(t, "https://pay.example/pay-123", result.PaymentURL)
	assert.Equal(t, 1500.0, result.Amount)
	assert.Equal(t, "KZT", result.Currency)

	// Gateway amounts are in minor units.
	assert.Equal(t, int64(150000), gotParams.Amount)
	assert.Equal(t, "user@example.com", gotParams.Email)
	assert.Regexp(t, `^booking-7-\d+$`, gotParams.OrderID)
	assert.Equal(t, "Concert - 2 билет(ов)", gotParams.Description)

	var transaction payments.PaymentTransaction
	require.NoError(t, db.Where("booking_id = ?", 7).First(&transaction).Error)
	assert.Equal(t, payments.StatusPending, transaction.Status)
	assert.Equal(t, "pay-123", transaction.TransactionID)

	var booking Booking
	require.NoError(t, db.First(&booking, 7).Error)
	assert.Equal(t, StatusPendingPayment, booking.Status)
}

func TestInitiatePaymentEmptyBooking(t *testing.T) {
	db := newBookingTestDB(t)
	svc := newBookingService(db, &mockGateway{}, &mockLocker{})

	require.NoError(t, db.Create(&Booking{ID: 7, EventID: 1, UserID: 42, Status: StatusCreated}).Error)

	_, err := svc.InitiatePayment(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrEmptyBooking)
}

func TestInitiatePaymentGatewayDeclined(t *testing.T) {
	db := newBookingTestDB(t)

	code := 1002
	message := "Duplicate order"
	gateway := &mockGateway{
		CreatePaymentFunc: func(ctx context.Context, params payments.CreatePaymentParams) (*payments.InitResponse, error) {
			return &payments.InitResponse{Success: false, Code: &code, Message: &message}, nil
		},
	}
	svc := newBookingService(db, gateway, &mockLocker{})

	require.NoError(t, db.Create(&Booking{ID: 7, EventID: 1, UserID: 42, Status: StatusCreated}).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO seats (id, event_id, row, number, status, booking_id, price) VALUES "+
			"(101, 1, 1, 1, 'RESERVED', 7, 750)").Error)

	_, err := svc.InitiatePayment(context.Background(), 42, 7)

	var declined *GatewayDeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, 1002, declined.Code)

	// Nothing was recorded for the declined attempt.
	var count int64
	require.NoError(t, db.Model(&payments.PaymentTransaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGetPaymentStatusProbesGateway(t *testing.T) {
	db := newBookingTestDB(t)

	confirmed := payments.GatewayStatusConfirmed
	gateway := &mockGateway{
		CheckPaymentStatusFunc: func(ctx context.Context, paymentID string) (*payments.CheckResponse, error) {
			return &payments.CheckResponse{Success: true, Status: &confirmed}, nil
		},
	}
	svc := newBookingService(db, gateway, &mockLocker{})

	require.NoError(t, db.Create(&Booking{ID: 7, EventID: 1, UserID: 42, Status: StatusPendingPayment}).Error)
	require.NoError(t, db.Create(&payments.PaymentTransaction{
		BookingID:     7,
		TransactionID: "pay-123",
		Amount:        1500,
		Status:        payments.StatusPending,
	}).Error)

	result, err := svc.GetPaymentStatus(context.Background(), 42, 7)
	require.NoError(t, err)

	assert.Equal(t, payments.StatusCompleted, result.PaymentStatus)
	assert.Equal(t, "pay-123", result.PaymentID)
}

func TestGetPaymentStatusUnknownBooking(t *testing.T) {
	db := newBookingTestDB(t)
	svc := newBookingService(db, &mockGateway{}, &mockLocker{})

	_, err := svc.GetPaymentStatus(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
