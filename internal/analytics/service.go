package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackload-kz/rorobotics/pkg/logger"
)

var ErrEventNotFound = errors.New("event not found")

type Service interface {
	// GetEventAnalytics returns the sales breakdown for one event.
	GetEventAnalytics(ctx context.Context, eventID int64) (*EventAnalytics, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetEventAnalytics(ctx context.Context, eventID int64) (*EventAnalytics, error) {
	exists, err := s.repo.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return nil, ErrEventNotFound
	}

	row, err := s.repo.SeatBreakdown(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate seats: %w", err)
	}

	result := &EventAnalytics{
		EventID:       eventID,
		TotalSeats:    row.TotalSeats,
		SoldSeats:     row.SoldSeats,
		ReservedSeats: row.ReservedSeats,
		FreeSeats:     row.FreeSeats,
		TotalRevenue:  fmt.Sprintf("%.2f", row.TotalRevenue),
		BookingsCount: row.BookingsCount,
	}

	logger.GetDefault().Info("event analytics computed",
		"event_id", eventID,
		"total_seats", result.TotalSeats,
		"sold_seats", result.SoldSeats,
		"revenue", result.TotalRevenue)
	return result, nil
}
