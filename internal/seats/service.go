package seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/internal/shared/constants"
	"github.com/hackload-kz/rorobotics/pkg/cache"
	"github.com/hackload-kz/rorobotics/pkg/logger"
	"github.com/hackload-kz/rorobotics/pkg/metrics"

	"gorm.io/gorm"
)

// Sentinel errors the HTTP layer maps to status codes.
var (
	// ErrSeatHeld: another contender holds the seat, durably or via lock.
	ErrSeatHeld = errors.New("seat already reserved")

	// ErrBookingConflict: booking missing, foreign, or not accepting seats.
	ErrBookingConflict = errors.New("booking unavailable")

	// ErrSeatNotReserved: release attempted on a seat that is not reserved.
	ErrSeatNotReserved = errors.New("seat is not reserved")

	// ErrNotOwner: seat belongs to another user's booking.
	ErrNotOwner = errors.New("seat reserved by another user")

	ErrSeatNotFound = errors.New("seat not found")
)

type Service interface {
	// ListSeats returns one page of seats for an event with the lock
	// overlay applied: durable FREE seats whose lock key is live are
	// shown as SELECTED.
	ListSeats(ctx context.Context, query ListQuery) ([]SeatView, error)

	// SelectSeat moves a seat FREE -> RESERVED for the given booking.
	SelectSeat(ctx context.Context, userID, bookingID, seatID int64) error

	// ReleaseSeat moves a seat RESERVED -> FREE for its owner.
	ReleaseSeat(ctx context.Context, userID, seatID int64) error

	// InvalidateSeatsCache drops the cached seat list for an event.
	InvalidateSeatsCache(ctx context.Context, eventID int64)
}

type service struct {
	repo         Repository
	locker       SeatLocker
	config       *config.Config
	cacheService cache.Service
}

func NewService(repo Repository, locker SeatLocker, cfg *config.Config, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		locker:       locker,
		config:       cfg,
		cacheService: cacheService,
	}
}

func (s *service) ListSeats(ctx context.Context, query ListQuery) ([]SeatView, error) {
	query.Normalize()

	seats, err := s.loadSeats(ctx, query.EventID)
	if err != nil {
		return nil, err
	}

	views := s.applyLockOverlay(ctx, seats)

	// Row/status filters run over display statuses, then pagination
	filtered := make([]SeatView, 0, len(views))
	for _, v := range views {
		if query.Row > 0 && v.Row != query.Row {
			continue
		}
		if query.Status != "" && v.Status != query.Status {
			continue
		}
		filtered = append(filtered, v)
	}

	start := (query.Page - 1) * query.PageSize
	if start >= len(filtered) {
		return []SeatView{}, nil
	}
	end := start + query.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

// loadSeats reads the event's seat list through the cache. Cache
// trouble falls back to the durable store.
func (s *service) loadSeats(ctx context.Context, eventID int64) ([]Seat, error) {
	cacheKey := constants.BuildSeatsCacheKey(eventID)

	if s.cacheService != nil {
		var cached []Seat
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			metrics.CacheRequests.WithLabelValues("seats", "hit").Inc()
			return cached, nil
		}
		metrics.CacheRequests.WithLabelValues("seats", "miss").Inc()
	}

	seats, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, cacheKey, seats, s.config.Redis.SeatsCacheTTL); err != nil {
			logger.GetDefault().Warn("failed to cache seats", "event_id", eventID, "error", err)
		}
	}

	return seats, nil
}

// applyLockOverlay upgrades FREE seats with a live lock key to the
// display status SELECTED. Lock lookups are best-effort: on redis
// trouble the durable statuses are returned as-is.
func (s *service) applyLockOverlay(ctx context.Context, seats []Seat) []SeatView {
	var freeIDs []int64
	for i := range seats {
		if seats[i].NormalizedStatus() == StatusFree {
			freeIDs = append(freeIDs, seats[i].ID)
		}
	}

	var held map[int64]bool
	if s.locker != nil && len(freeIDs) > 0 {
		var err error
		held, err = s.locker.Held(ctx, freeIDs)
		if err != nil {
			logger.GetDefault().Warn("lock overlay lookup failed", "error", err)
			held = nil
		}
	}

	views := make([]SeatView, 0, len(seats))
	for i := range seats {
		seat := &seats[i]
		status := seat.NormalizedStatus()
		if status == StatusFree && held[seat.ID] {
			status = StatusSelected
		}
		views = append(views, SeatView{
			ID:        seat.ID,
			EventID:   seat.EventID,
			Row:       seat.Row,
			Number:    seat.Number,
			Status:    status,
			BookingID: seat.BookingID,
			Category:  seat.Category,
			Price:     seat.Price,
		})
	}
	return views
}

func (s *service) SelectSeat(ctx context.Context, userID, bookingID, seatID int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.SeatSelections.WithLabelValues("conflict").Inc()
			return ErrBookingConflict
		}
		metrics.SeatSelections.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.UserID != userID || booking.Status != "created" {
		metrics.SeatSelections.WithLabelValues("conflict").Inc()
		return ErrBookingConflict
	}

	// Lock gate first: serializes contenders before the durable update
	acquired, err := s.locker.Acquire(ctx, seatID, userID, s.config.Redis.SeatLockTTL)
	if err != nil {
		metrics.SeatSelections.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to acquire seat lock: %w", err)
	}
	if !acquired {
		metrics.SeatSelections.WithLabelValues("conflict").Inc()
		return ErrSeatHeld
	}

	// Durable conditional update is the authority
	reserved, err := s.repo.Reserve(ctx, seatID, bookingID)
	if err != nil {
		s.unlockSeat(ctx, seatID)
		metrics.SeatSelections.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to reserve seat: %w", err)
	}
	if !reserved {
		// Seat was not free in the durable store; unwind the hint so
		// legitimate contenders are not blocked until the TTL
		s.unlockSeat(ctx, seatID)
		metrics.SeatSelections.WithLabelValues("conflict").Inc()
		return ErrSeatHeld
	}

	s.InvalidateSeatsCache(ctx, booking.EventID)
	metrics.SeatSelections.WithLabelValues("ok").Inc()
	logger.GetDefault().LogSeatSelected(ctx, seatID, bookingID, userID)
	return nil
}

func (s *service) ReleaseSeat(ctx context.Context, userID, seatID int64) error {
	seat, err := s.repo.GetByID(ctx, seatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSeatNotFound
		}
		return fmt.Errorf("failed to load seat: %w", err)
	}

	if seat.NormalizedStatus() != StatusReserved || seat.BookingID == nil {
		return ErrSeatNotReserved
	}

	booking, err := s.repo.GetBooking(ctx, *seat.BookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.UserID != userID {
		return ErrNotOwner
	}

	freed, err := s.repo.Free(ctx, seatID)
	if err != nil {
		return fmt.Errorf("failed to free seat: %w", err)
	}
	if !freed {
		// Lost a race with payment completion or the reaper
		return ErrSeatNotReserved
	}

	s.unlockSeat(ctx, seatID)
	s.InvalidateSeatsCache(ctx, seat.EventID)
	return nil
}

func (s *service) InvalidateSeatsCache(ctx context.Context, eventID int64) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildSeatsCacheKey(eventID)); err != nil {
		logger.GetDefault().Warn("failed to invalidate seats cache", "event_id", eventID, "error", err)
	}
}

func (s *service) unlockSeat(ctx context.Context, seatID int64) {
	if err := s.locker.Release(ctx, seatID); err != nil {
		logger.GetDefault().Warn("failed to release seat lock", "seat_id", seatID, "error", err)
	}
}
