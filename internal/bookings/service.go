package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackload-kz/rorobotics/internal/payments"
	"github.com/hackload-kz/rorobotics/internal/seats"
	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/internal/shared/constants"
	"github.com/hackload-kz/rorobotics/pkg/cache"
	"github.com/hackload-kz/rorobotics/pkg/logger"
	"github.com/hackload-kz/rorobotics/pkg/metrics"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotOwner        = errors.New("booking belongs to another user")

	// ErrBookingPaid guards cancellation of settled bookings; refunds
	// are a manual process.
	ErrBookingPaid = errors.New("booking is already paid")

	// ErrEmptyBooking: payment cannot be initiated without reserved seats.
	ErrEmptyBooking = errors.New("booking has no reserved seats")

	ErrInvalidAmount = errors.New("booking total must be positive")
)

// GatewayDeclinedError carries the provider's error code so the HTTP
// layer can map it onto a status.
type GatewayDeclinedError struct {
	Code    int
	Message string
}

func (e *GatewayDeclinedError) Error() string {
	return fmt.Sprintf("payment gateway declined: code=%d message=%s", e.Code, e.Message)
}

type Service interface {
	// CreateBooking opens an empty booking for an event.
	CreateBooking(ctx context.Context, userID, eventID int64) (*Booking, error)

	// GetUserBookings lists the user's bookings with their seat ids.
	GetUserBookings(ctx context.Context, userID int64) ([]BookingView, error)

	// CancelBooking frees the booking's reserved seats and marks it
	// cancelled in one transaction.
	CancelBooking(ctx context.Context, userID, bookingID int64) error

	// InitiatePayment opens a gateway session for the booking's
	// reserved seats and moves the booking to pending_payment.
	InitiatePayment(ctx context.Context, userID, bookingID int64) (*InitiatePaymentResult, error)

	// GetPaymentStatus reports the latest payment's state, re-checking
	// the gateway while it is still pending.
	GetPaymentStatus(ctx context.Context, userID, bookingID int64) (*PaymentStatusResult, error)
}

type service struct {
	db           *gorm.DB
	repo         Repository
	paymentsRepo payments.Repository
	gateway      payments.Gateway
	locker       seats.SeatLocker
	cacheService cache.Service
	config       *config.Config
}

func NewService(db *gorm.DB, repo Repository, paymentsRepo payments.Repository, gateway payments.Gateway, locker seats.SeatLocker, cacheService cache.Service, cfg *config.Config) Service {
	return &service{
		db:           db,
		repo:         repo,
		paymentsRepo: paymentsRepo,
		gateway:      gateway,
		locker:       locker,
		cacheService: cacheService,
		config:       cfg,
	}
}

func (s *service) CreateBooking(ctx context.Context, userID, eventID int64) (*Booking, error) {
	exists, err := s.repo.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return nil, ErrEventNotFound
	}

	booking := &Booking{
		EventID: eventID,
		UserID:  userID,
		Status:  StatusCreated,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	metrics.BookingsCreated.Inc()
	logger.GetDefault().LogBookingCreated(ctx, booking.ID, eventID, userID)
	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID int64) ([]BookingView, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	ids := make([]int64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}

	seatsByBooking, err := s.repo.SeatIDsByBooking(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking seats: %w", err)
	}

	views := make([]BookingView, 0, len(list))
	for _, b := range list {
		view := BookingView{
			ID:      b.ID,
			EventID: b.EventID,
			Seats:   make([]BookingSeat, 0, len(seatsByBooking[b.ID])),
		}
		for _, seatID := range seatsByBooking[b.ID] {
			view.Seats = append(view.Seats, BookingSeat{ID: seatID})
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.UserID != userID {
		return ErrNotOwner
	}
	if booking.Status == StatusPaid {
		return ErrBookingPaid
	}

	var freedSeats []int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("seats").
			Where("booking_id = ? AND status = ?", bookingID, seats.StatusReserved).
			Pluck("id", &freedSeats).Error; err != nil {
			return err
		}

		if len(freedSeats) > 0 {
			if err := tx.Table("seats").
				Where("id IN ? AND status = ?", freedSeats, seats.StatusReserved).
				Updates(map[string]interface{}{
					"status":     seats.StatusFree,
					"booking_id": nil,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&Booking{}).
			Where("id = ?", bookingID).
			Update("status", StatusCancelled).Error
	})
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	// Lock keys and the seat cache are cleaned up after commit;
	// failures here only delay visibility.
	if s.locker != nil && len(freedSeats) > 0 {
		if err := s.locker.ReleaseMany(ctx, freedSeats); err != nil {
			logger.GetDefault().Warn("failed to release seat locks on cancel",
				"booking_id", bookingID, "error", err)
		}
	}
	s.invalidateSeatsCache(ctx, booking.EventID)

	logger.GetDefault().Info("booking cancelled",
		"booking_id", bookingID, "user_id", userID, "freed_seats", len(freedSeats))
	return nil
}

func (s *service) InitiatePayment(ctx context.Context, userID, bookingID int64) (*InitiatePaymentResult, error) {
	agg, err := s.repo.PaymentAggregate(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyBooking
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if agg.TotalPrice <= 0 {
		return nil, ErrInvalidAmount
	}

	// Providers want the amount in minor currency units.
	amount := int64(agg.TotalPrice * 100)
	orderID := fmt.Sprintf("booking-%d-%d", bookingID, time.Now().Unix())
	description := fmt.Sprintf("%s - %d билет(ов)", agg.EventTitle, agg.SeatCount)

	resp, err := s.gateway.CreatePayment(ctx, payments.CreatePaymentParams{
		Amount:      amount,
		OrderID:     orderID,
		Description: description,
		Email:       agg.Email,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		code := 9999
		message := "Unknown error"
		if resp.Code != nil {
			code = *resp.Code
		}
		if resp.Message != nil {
			message = *resp.Message
		}
		return nil, &GatewayDeclinedError{Code: code, Message: message}
	}
	if resp.PaymentID == nil || resp.PaymentURL == nil {
		return nil, fmt.Errorf("gateway response missing payment id or url")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transaction := &payments.PaymentTransaction{
			BookingID:     bookingID,
			TransactionID: *resp.PaymentID,
			Amount:        agg.TotalPrice,
			Status:        payments.StatusPending,
		}
		if err := tx.Create(transaction).Error; err != nil {
			return err
		}

		return tx.Model(&Booking{}).
			Where("id = ? AND status IN ?", bookingID, []string{StatusCreated, StatusPendingPayment}).
			Update("status", StatusPendingPayment).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment transaction: %w", err)
	}

	logger.GetDefault().LogPaymentInitiated(ctx, bookingID, *resp.PaymentID, amount)

	return &InitiatePaymentResult{
		Success:     true,
		PaymentURL:  *resp.PaymentURL,
		PaymentID:   *resp.PaymentID,
		Amount:      agg.TotalPrice,
		Currency:    s.config.Payment.Currency,
		Description: description,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

func (s *service) GetPaymentStatus(ctx context.Context, userID, bookingID int64) (*PaymentStatusResult, error) {
	transaction, err := s.paymentsRepo.LatestByBooking(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	status := transaction.Status
	if status == payments.StatusPending {
		status = s.probeGateway(ctx, transaction.TransactionID, status)
	}

	return &PaymentStatusResult{
		Success:       true,
		BookingID:     bookingID,
		PaymentStatus: status,
		PaymentID:     transaction.TransactionID,
	}, nil
}

// probeGateway refreshes a pending status straight from the provider.
// An AUTHORIZED payment is captured on the spot; durable state still
// settles through the webhook or the reaper.
func (s *service) probeGateway(ctx context.Context, paymentID, current string) string {
	check, err := s.gateway.CheckPaymentStatus(ctx, paymentID)
	if err != nil || !check.Success || check.Status == nil {
		return current
	}

	switch *check.Status {
	case payments.GatewayStatusConfirmed:
		return payments.StatusCompleted
	case payments.GatewayStatusFailed, payments.GatewayStatusCancelled, payments.GatewayStatusExpired:
		return payments.StatusFailed
	case payments.GatewayStatusAuthorized:
		if check.Amount == nil || check.Currency == nil || check.OrderID == nil {
			return current
		}
		confirm, err := s.gateway.ConfirmPayment(ctx, paymentID, *check.Amount, *check.Currency, *check.OrderID)
		if err != nil || !confirm.Success {
			return current
		}
		logger.GetDefault().Info("auto-confirmed payment during status check", "payment_id", paymentID)
		return payments.StatusCompleted
	default:
		return current
	}
}

func (s *service) invalidateSeatsCache(ctx context.Context, eventID int64) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildSeatsCacheKey(eventID)); err != nil {
		logger.GetDefault().Warn("failed to invalidate seats cache",
			"event_id", eventID, "error", err)
	}
}
