package admin

import (
	"context"
	"fmt"

	"github.com/hackload-kz/rorobotics/internal/shared/constants"
	"github.com/hackload-kz/rorobotics/pkg/cache"
	"github.com/hackload-kz/rorobotics/pkg/logger"

	"gorm.io/gorm"
)

// ResetReport details what a test data reset touched. Users and
// events are never part of it.
type ResetReport struct {
	SeatsReset        int64 `json:"seats_reset"`
	BookingsDeleted   int64 `json:"bookings_deleted"`
	PaymentsDeleted   int64 `json:"payments_deleted"`
	LocksCleared      int   `json:"redis_reserves_cleared"`
	SeatCachesCleared int   `json:"redis_cache_cleared"`
	EventsInvalidated int   `json:"events_invalidated"`
}

type Service interface {
	// ResetTestData wipes bookings, payments, and seat assignments in
	// one transaction, then purges the derived redis state.
	ResetTestData(ctx context.Context) (*ResetReport, error)
}

type service struct {
	db           *gorm.DB
	cacheService cache.Service
}

func NewService(db *gorm.DB, cacheService cache.Service) Service {
	return &service{db: db, cacheService: cacheService}
}

func (s *service) ResetTestData(ctx context.Context) (*ResetReport, error) {
	log := logger.GetDefault()
	log.Warn("RESET: wiping all test data")

	report := &ResetReport{}
	var eventIDs []int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Affected events are collected first so their caches can be
		// invalidated after commit.
		if err := tx.Table("bookings").Distinct("event_id").Pluck("event_id", &eventIDs).Error; err != nil {
			return fmt.Errorf("failed to collect event ids: %w", err)
		}

		seats := tx.Table("seats").
			Where("status IN ?", []string{"RESERVED", "SOLD", "SELECTED"}).
			Updates(map[string]interface{}{
				"status":     "FREE",
				"booking_id": nil,
			})
		if seats.Error != nil {
			return fmt.Errorf("failed to reset seats: %w", seats.Error)
		}
		report.SeatsReset = seats.RowsAffected

		payments := tx.Exec("DELETE FROM payment_transactions")
		if payments.Error != nil {
			return fmt.Errorf("failed to delete payments: %w", payments.Error)
		}
		report.PaymentsDeleted = payments.RowsAffected

		bookings := tx.Exec("DELETE FROM bookings")
		if bookings.Error != nil {
			return fmt.Errorf("failed to delete bookings: %w", bookings.Error)
		}
		report.BookingsDeleted = bookings.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Fresh ids keep load test runs comparable. Kept outside the
	// transaction: not every backend has the sequence, and a failed
	// statement would poison the whole reset.
	if err := s.db.WithContext(ctx).Exec("ALTER SEQUENCE bookings_id_seq RESTART WITH 1").Error; err != nil {
		log.Warn("RESET: failed to restart booking id sequence", "error", err)
	}

	report.LocksCleared = s.purgePattern(ctx, constants.PatternSeatLocks)
	report.SeatCachesCleared = s.purgePattern(ctx, constants.PatternSeatsCache)

	if s.cacheService != nil {
		for _, eventID := range eventIDs {
			if err := s.cacheService.Delete(ctx, constants.BuildSeatsCacheKey(eventID)); err != nil {
				log.Warn("RESET: failed to invalidate seats cache", "event_id", eventID, "error", err)
			}
		}
		report.EventsInvalidated = len(eventIDs)
	}

	log.Warn("RESET: completed",
		"seats_reset", report.SeatsReset,
		"bookings_deleted", report.BookingsDeleted,
		"payments_deleted", report.PaymentsDeleted,
		"locks_cleared", report.LocksCleared)
	return report, nil
}

func (s *service) purgePattern(ctx context.Context, pattern string) int {
	if s.cacheService == nil {
		return 0
	}
	keys, err := s.cacheService.ScanKeys(ctx, pattern)
	if err != nil {
		logger.GetDefault().Warn("RESET: failed to scan keys", "pattern", pattern, "error", err)
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	if err := s.cacheService.DeleteMany(ctx, keys); err != nil {
		logger.GetDefault().Warn("RESET: failed to delete keys", "pattern", pattern, "error", err)
		return 0
	}
	return len(keys)
}
