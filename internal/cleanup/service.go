package cleanup

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/hackload-kz/rorobotics/internal/payments"
	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/internal/shared/constants"
	"github.com/hackload-kz/rorobotics/pkg/cache"
	"github.com/hackload-kz/rorobotics/pkg/logger"
	"github.com/hackload-kz/rorobotics/pkg/metrics"

	"gorm.io/gorm"
)

// Stats summarizes one reaper sweep.
type Stats struct {
	ExpiredPayments int
	EmptyBookings   int
	StaleBookings   int
	OrphanedLocks   int
}

type Service interface {
	// RunFullCleanup runs all sweeps once: expired payments, abandoned
	// bookings, and orphaned seat locks.
	RunFullCleanup(ctx context.Context) Stats
}

type service struct {
	db           *gorm.DB
	paymentsRepo payments.Repository
	lifecycle    *payments.Lifecycle
	gateway      payments.Gateway
	cacheService cache.Service
	config       *config.Config
}

func NewService(db *gorm.DB, paymentsRepo payments.Repository, lifecycle *payments.Lifecycle, gateway payments.Gateway, cacheService cache.Service, cfg *config.Config) Service {
	return &service{
		db:           db,
		paymentsRepo: paymentsRepo,
		lifecycle:    lifecycle,
		gateway:      gateway,
		cacheService: cacheService,
		config:       cfg,
	}
}

func (s *service) RunFullCleanup(ctx context.Context) Stats {
	log := logger.GetDefault()
	log.Info("starting cleanup sweep")

	stats := Stats{
		ExpiredPayments: s.sweepExpiredPayments(ctx),
		EmptyBookings:   s.sweepEmptyBookings(ctx),
		StaleBookings:   s.sweepStaleBookings(ctx),
	}
	if s.config.Reaper.OrphanLockEnabled {
		stats.OrphanedLocks = s.sweepOrphanedLocks(ctx)
	}

	metrics.ReaperSweeps.Inc()
	log.Info("cleanup sweep completed",
		"expired_payments", stats.ExpiredPayments,
		"empty_bookings", stats.EmptyBookings,
		"stale_bookings", stats.StaleBookings,
		"orphaned_locks", stats.OrphanedLocks)
	return stats
}

// sweepExpiredPayments settles pending payments older than the expiry
// window. Each one is re-checked with the gateway first: a payment
// that actually went through is completed, not thrown away.
func (s *service) sweepExpiredPayments(ctx context.Context) int {
	cutoff := time.Now().Add(-s.config.Reaper.PaymentExpiry)

	rows, err := s.paymentsRepo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		logger.GetDefault().Error("failed to list expired payments", "error", err)
		return 0
	}

	cleaned := 0
	for i := range rows {
		tc := rows[i]
		if s.settleViaGateway(ctx, &tc) {
			cleaned++
			continue
		}
		if err := s.lifecycle.CleanupExpiredPayment(ctx, &tc); err != nil {
			logger.GetDefault().Error("failed to clean up expired payment",
				"payment_id", tc.TransactionID, "error", err)
			continue
		}
		metrics.ReaperCleaned.WithLabelValues("expired_payment").Inc()
		cleaned++
	}
	return cleaned
}

// settleViaGateway reports whether the payment turned out to be paid
// and was processed as a success. An open circuit breaker skips the
// check and lets the expiry proceed.
func (s *service) settleViaGateway(ctx context.Context, tc *payments.TransactionContext) bool {
	check, err := s.gateway.CheckPaymentStatus(ctx, tc.TransactionID)
	if err != nil {
		if errors.Is(err, payments.ErrCircuitOpen) {
			logger.GetDefault().Warn("circuit breaker open, expiring payment without gateway check",
				"payment_id", tc.TransactionID)
		}
		return false
	}
	if !check.Success || check.Status == nil {
		return false
	}

	switch *check.Status {
	case payments.GatewayStatusConfirmed:
		// fall through to success below
	case payments.GatewayStatusAuthorized:
		if check.Amount == nil || check.Currency == nil || check.OrderID == nil {
			return false
		}
		confirm, err := s.gateway.ConfirmPayment(ctx, tc.TransactionID, *check.Amount, *check.Currency, *check.OrderID)
		if err != nil || !confirm.Success {
			return false
		}
	default:
		return false
	}

	if err := s.lifecycle.ProcessSuccessfulPayment(ctx, tc); err != nil {
		logger.GetDefault().Error("failed to complete payment found paid during cleanup",
			"payment_id", tc.TransactionID, "error", err)
		return false
	}
	logger.GetDefault().Info("payment was confirmed during cleanup", "payment_id", tc.TransactionID)
	metrics.ReaperCleaned.WithLabelValues("recovered_payment").Inc()
	return true
}

// sweepEmptyBookings deletes created bookings with no seats that have
// sat around past the empty booking age.
func (s *service) sweepEmptyBookings(ctx context.Context) int {
	cutoff := time.Now().Add(-s.config.Reaper.EmptyBookingAge)

	var ids []int64
	err := s.db.WithContext(ctx).
		Table("bookings").
		Joins("LEFT JOIN seats ON seats.booking_id = bookings.id").
		Where("bookings.status = ? AND bookings.created_at < ? AND seats.id IS NULL", "created", cutoff).
		Pluck("bookings.id", &ids).Error
	if err != nil {
		logger.GetDefault().Error("failed to list empty bookings", "error", err)
		return 0
	}

	cleaned := 0
	for _, id := range ids {
		// Conditional delete: the booking may have picked up seats or
		// payment since the listing query.
		result := s.db.WithContext(ctx).
			Exec("DELETE FROM bookings WHERE id = ? AND status = 'created'", id)
		if result.Error != nil {
			logger.GetDefault().Error("failed to delete empty booking", "booking_id", id, "error", result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			metrics.ReaperCleaned.WithLabelValues("empty_booking").Inc()
			cleaned++
		}
	}
	return cleaned
}

type staleBooking struct {
	ID      int64 `gorm:"column:id"`
	EventID int64 `gorm:"column:event_id"`
}

// sweepStaleBookings frees seats reserved by created bookings that
// never initiated payment within the stale booking age, then deletes
// the booking.
func (s *service) sweepStaleBookings(ctx context.Context) int {
	cutoff := time.Now().Add(-s.config.Reaper.StaleBookingAge)

	var stale []staleBooking
	err := s.db.WithContext(ctx).
		Table("bookings").
		Select("DISTINCT bookings.id, bookings.event_id").
		Joins("JOIN seats ON seats.booking_id = bookings.id").
		Joins("LEFT JOIN payment_transactions ON payment_transactions.booking_id = bookings.id").
		Where("bookings.status = ? AND bookings.created_at < ? AND seats.status = ? AND payment_transactions.id IS NULL",
			"created", cutoff, "RESERVED").
		Find(&stale).Error
	if err != nil {
		logger.GetDefault().Error("failed to list stale bookings", "error", err)
		return 0
	}

	cleaned := 0
	for _, b := range stale {
		if err := s.reapStaleBooking(ctx, b); err != nil {
			logger.GetDefault().Error("failed to reap stale booking", "booking_id", b.ID, "error", err)
			continue
		}
		metrics.ReaperCleaned.WithLabelValues("stale_booking").Inc()
		cleaned++
	}
	return cleaned
}

func (s *service) reapStaleBooking(ctx context.Context, b staleBooking) error {
	var freedSeats []int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("seats").
			Where("booking_id = ? AND status = ?", b.ID, "RESERVED").
			Pluck("id", &freedSeats).Error; err != nil {
			return err
		}

		if len(freedSeats) > 0 {
			if err := tx.Table("seats").
				Where("id IN ? AND status = ?", freedSeats, "RESERVED").
				Updates(map[string]interface{}{
					"status":     "FREE",
					"booking_id": nil,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Exec("DELETE FROM bookings WHERE id = ?", b.ID).Error
	})
	if err != nil {
		return err
	}

	s.dropSeatLocks(ctx, freedSeats)
	if s.cacheService != nil {
		if err := s.cacheService.Delete(ctx, constants.BuildSeatsCacheKey(b.EventID)); err != nil {
			logger.GetDefault().Warn("failed to invalidate seats cache",
				"event_id", b.EventID, "error", err)
		}
	}

	logger.GetDefault().Info("stale booking reaped",
		"booking_id", b.ID, "freed_seats", len(freedSeats))
	return nil
}

// sweepOrphanedLocks deletes seat lock keys whose seat is no longer
// reserved in the durable store.
func (s *service) sweepOrphanedLocks(ctx context.Context) int {
	if s.cacheService == nil {
		return 0
	}

	keys, err := s.cacheService.ScanKeys(ctx, constants.PatternSeatLocks)
	if err != nil {
		logger.GetDefault().Error("failed to scan seat locks", "error", err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	seatByKey := make(map[string]int64, len(keys))
	seatIDs := make([]int64, 0, len(keys))
	for _, key := range keys {
		id, ok := seatIDFromLockKey(key)
		if !ok {
			continue
		}
		seatByKey[key] = id
		seatIDs = append(seatIDs, id)
	}
	if len(seatIDs) == 0 {
		return 0
	}

	var reserved []int64
	err = s.db.WithContext(ctx).
		Table("seats").
		Where("id IN ? AND status IN ?", seatIDs, []string{"RESERVED", "SOLD"}).
		Pluck("id", &reserved).Error
	if err != nil {
		logger.GetDefault().Error("failed to check reserved seats", "error", err)
		return 0
	}

	reservedSet := make(map[int64]bool, len(reserved))
	for _, id := range reserved {
		reservedSet[id] = true
	}

	var orphaned []string
	for key, id := range seatByKey {
		if !reservedSet[id] {
			orphaned = append(orphaned, key)
		}
	}
	if len(orphaned) == 0 {
		return 0
	}

	if err := s.cacheService.DeleteMany(ctx, orphaned); err != nil {
		logger.GetDefault().Error("failed to delete orphaned seat locks", "error", err)
		return 0
	}

	metrics.ReaperCleaned.WithLabelValues("orphaned_lock").Add(float64(len(orphaned)))
	logger.GetDefault().Info("orphaned seat locks cleaned", "count", len(orphaned))
	return len(orphaned)
}

func (s *service) dropSeatLocks(ctx context.Context, seatIDs []int64) {
	if s.cacheService == nil || len(seatIDs) == 0 {
		return
	}
	keys := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		keys[i] = constants.BuildSeatLockKey(id)
	}
	if err := s.cacheService.DeleteMany(ctx, keys); err != nil {
		logger.GetDefault().Warn("failed to drop seat locks", "error", err)
	}
}

// seatIDFromLockKey parses "seat:{id}:reserved" back into the seat id.
func seatIDFromLockKey(key string) (int64, bool) {
	trimmed := strings.TrimPrefix(key, "seat:")
	if trimmed == key {
		return 0, false
	}
	trimmed = strings.TrimSuffix(trimmed, ":reserved")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
