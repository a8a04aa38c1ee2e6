package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackload-kz/rorobotics/internal/shared/constants"
	"github.com/hackload-kz/rorobotics/pkg/cache"
	"github.com/hackload-kz/rorobotics/pkg/logger"
	"github.com/hackload-kz/rorobotics/pkg/metrics"

	"gorm.io/gorm"
)

// Status strings of the rows the lifecycle handlers touch. Kept as raw
// table updates so payment resolution stays decoupled from the seat
// and booking packages.
const (
	seatReserved = "RESERVED"
	seatSold     = "SOLD"
	seatFree     = "FREE"

	bookingPendingPayment = "pending_payment"
	bookingPaid           = "paid"
)

// LockReleaser drops seat lock keys after a resolution commits.
type LockReleaser interface {
	ReleaseMany(ctx context.Context, seatIDs []int64) error
}

// Notifier publishes booking outcome events. Implementations must not
// block resolution; failures are logged and swallowed here.
type Notifier interface {
	BookingConfirmed(ctx context.Context, bookingID, userID int64, seatIDs []int64) error
	PaymentFailed(ctx context.Context, bookingID, userID int64) error
}

// Lifecycle resolves payment outcomes into booking and seat state.
// Every handler is one transaction with conditional updates, so a
// replayed notification finds nothing left to change.
type Lifecycle struct {
	db           *gorm.DB
	repo         Repository
	gateway      Gateway
	locks        LockReleaser
	cacheService cache.Service
	notifier     Notifier
}

func NewLifecycle(db *gorm.DB, repo Repository, gateway Gateway, locks LockReleaser, cacheService cache.Service, notifier Notifier) *Lifecycle {
	return &Lifecycle{
		db:           db,
		repo:         repo,
		gateway:      gateway,
		locks:        locks,
		cacheService: cacheService,
		notifier:     notifier,
	}
}

// HandleWebhook dispatches one gateway notification. Unknown payments
// and unknown statuses are logged and dropped so the provider never
// retries forever.
func (l *Lifecycle) HandleWebhook(ctx context.Context, paymentID, status string) error {
	if paymentID == "" {
		logger.GetDefault().Warn("webhook without paymentId ignored")
		return nil
	}

	tc, err := l.repo.ResolveByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.GetDefault().Warn("webhook for unknown payment", "payment_id", paymentID)
			return nil
		}
		return fmt.Errorf("failed to resolve payment: %w", err)
	}

	switch status {
	case GatewayStatusConfirmed:
		return l.ProcessSuccessfulPayment(ctx, tc)
	case GatewayStatusAuthorized:
		return l.confirmAuthorized(ctx, tc)
	case GatewayStatusCancelled, GatewayStatusFailed, GatewayStatusExpired, GatewayStatusRefunded:
		return l.ProcessFailedPayment(ctx, tc)
	case GatewayStatusNew:
		logger.GetDefault().Info("payment still new", "payment_id", paymentID)
		return nil
	default:
		logger.GetDefault().Warn("webhook with unknown status",
			"payment_id", paymentID, "status", status)
		return nil
	}
}

// confirmAuthorized re-checks an AUTHORIZED payment and captures it.
// The payment stays pending when the capture cannot be completed; a
// later webhook or the reaper will settle it.
func (l *Lifecycle) confirmAuthorized(ctx context.Context, tc *TransactionContext) error {
	check, err := l.gateway.CheckPaymentStatus(ctx, tc.TransactionID)
	if err != nil {
		logger.GetDefault().Warn("status check for authorized payment failed",
			"payment_id", tc.TransactionID, "error", err)
		return nil
	}
	if !check.Success || check.Status == nil {
		return nil
	}

	switch *check.Status {
	case GatewayStatusConfirmed:
		return l.ProcessSuccessfulPayment(ctx, tc)
	case GatewayStatusAuthorized:
		if check.Amount == nil || check.Currency == nil || check.OrderID == nil {
			return nil
		}
		confirm, err := l.gateway.ConfirmPayment(ctx, tc.TransactionID, *check.Amount, *check.Currency, *check.OrderID)
		if err != nil || !confirm.Success {
			logger.GetDefault().Warn("failed to confirm authorized payment",
				"payment_id", tc.TransactionID, "error", err)
			return nil
		}
		logger.GetDefault().Info("auto-confirmed authorized payment", "payment_id", tc.TransactionID)
		return l.ProcessSuccessfulPayment(ctx, tc)
	default:
		return nil
	}
}

// ProcessSuccessfulPayment marks the transaction completed, the
// booking paid, and the booking's reserved seats sold.
func (l *Lifecycle) ProcessSuccessfulPayment(ctx context.Context, tc *TransactionContext) error {
	var soldSeats []int64

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("payment_transactions").
			Where("transaction_id = ? AND status = ?", tc.TransactionID, StatusPending).
			Update("status", StatusCompleted).Error; err != nil {
			return err
		}

		if err := tx.Table("bookings").
			Where("id = ? AND status = ?", tc.BookingID, bookingPendingPayment).
			Update("status", bookingPaid).Error; err != nil {
			return err
		}

		if err := tx.Table("seats").
			Where("booking_id = ? AND status = ?", tc.BookingID, seatReserved).
			Pluck("id", &soldSeats).Error; err != nil {
			return err
		}

		if len(soldSeats) > 0 {
			if err := tx.Table("seats").
				Where("id IN ? AND status = ?", soldSeats, seatReserved).
				Update("status", seatSold).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to process successful payment: %w", err)
	}

	l.cleanupAfterResolution(ctx, tc.EventID, soldSeats)
	metrics.PaymentsResolved.WithLabelValues(StatusCompleted).Inc()
	logger.GetDefault().LogPaymentResolved(ctx, tc.TransactionID, StatusCompleted)

	if l.notifier != nil {
		if err := l.notifier.BookingConfirmed(ctx, tc.BookingID, tc.UserID, soldSeats); err != nil {
			logger.GetDefault().Warn("failed to publish booking confirmation",
				"booking_id", tc.BookingID, "error", err)
		}
	}
	return nil
}

// ProcessFailedPayment marks the transaction failed, frees the
// booking's reserved seats, and deletes the booking.
func (l *Lifecycle) ProcessFailedPayment(ctx context.Context, tc *TransactionContext) error {
	freedSeats, err := l.resolveTerminal(ctx, tc, StatusFailed)
	if err != nil {
		return fmt.Errorf("failed to process failed payment: %w", err)
	}

	l.cleanupAfterResolution(ctx, tc.EventID, freedSeats)
	metrics.PaymentsResolved.WithLabelValues(StatusFailed).Inc()
	logger.GetDefault().LogPaymentResolved(ctx, tc.TransactionID, StatusFailed)

	if l.notifier != nil {
		if err := l.notifier.PaymentFailed(ctx, tc.BookingID, tc.UserID); err != nil {
			logger.GetDefault().Warn("failed to publish payment failure",
				"booking_id", tc.BookingID, "error", err)
		}
	}
	return nil
}

// CleanupExpiredPayment is the reaper's variant of failure: the
// transaction is marked expired instead of failed.
func (l *Lifecycle) CleanupExpiredPayment(ctx context.Context, tc *TransactionContext) error {
	freedSeats, err := l.resolveTerminal(ctx, tc, StatusExpired)
	if err != nil {
		return fmt.Errorf("failed to clean up expired payment: %w", err)
	}

	l.cleanupAfterResolution(ctx, tc.EventID, freedSeats)
	metrics.PaymentsResolved.WithLabelValues(StatusExpired).Inc()
	logger.GetDefault().LogPaymentResolved(ctx, tc.TransactionID, StatusExpired)
	return nil
}

// resolveTerminal applies the shared failure path: transaction to the
// terminal status, reserved seats freed, booking deleted.
func (l *Lifecycle) resolveTerminal(ctx context.Context, tc *TransactionContext, terminalStatus string) ([]int64, error) {
	var freedSeats []int64

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("payment_transactions").
			Where("transaction_id = ? AND status = ?", tc.TransactionID, StatusPending).
			Update("status", terminalStatus).Error; err != nil {
			return err
		}

		if err := tx.Table("seats").
			Where("booking_id = ? AND status = ?", tc.BookingID, seatReserved).
			Pluck("id", &freedSeats).Error; err != nil {
			return err
		}

		if len(freedSeats) > 0 {
			if err := tx.Table("seats").
				Where("id IN ? AND status = ?", freedSeats, seatReserved).
				Updates(map[string]interface{}{
					"status":     seatFree,
					"booking_id": nil,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Exec("DELETE FROM bookings WHERE id = ?", tc.BookingID).Error
	})
	if err != nil {
		return nil, err
	}
	return freedSeats, nil
}

// cleanupAfterResolution drops seat locks and the cached seat list.
// Both are best-effort: the durable state has already committed.
func (l *Lifecycle) cleanupAfterResolution(ctx context.Context, eventID int64, seatIDs []int64) {
	if l.locks != nil && len(seatIDs) > 0 {
		if err := l.locks.ReleaseMany(ctx, seatIDs); err != nil {
			logger.GetDefault().Warn("failed to release seat locks", "error", err)
		}
	}
	if l.cacheService != nil {
		if err := l.cacheService.Delete(ctx, constants.BuildSeatsCacheKey(eventID)); err != nil {
			logger.GetDefault().Warn("failed to invalidate seats cache",
				"event_id", eventID, "error", err)
		}
	}
}
