package events

import (
	"context"
	"fmt"

	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/internal/shared/constants"
	"github.com/hackload-kz/rorobotics/pkg/cache"
	"github.com/hackload-kz/rorobotics/pkg/logger"
	"github.com/hackload-kz/rorobotics/pkg/metrics"
)

type Service interface {
	// Search returns one page of matching events plus whether the page
	// came from cache.
	Search(ctx context.Context, query SearchQuery) ([]Event, bool, error)

	// GetEvents returns the full cached event list.
	GetEvents(ctx context.Context) ([]Event, error)

	// WarmCache primes the events cache at startup.
	WarmCache(ctx context.Context)
}

type service struct {
	repo         Repository
	config       *config.Config
	cacheService cache.Service
}

func NewService(repo Repository, cfg *config.Config, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		config:       cfg,
		cacheService: cacheService,
	}
}

func (s *service) Search(ctx context.Context, query SearchQuery) ([]Event, bool, error) {
	query.Normalize()
	cacheKey := constants.BuildSearchKey(query.Query, query.Date, query.Page, query.PageSize)

	if s.cacheService != nil {
		var cached []Event
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			metrics.CacheRequests.WithLabelValues("search", "hit").Inc()
			return cached, true, nil
		}
		metrics.CacheRequests.WithLabelValues("search", "miss").Inc()
	}

	events, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("failed to search events: %w", err)
	}
	if events == nil {
		events = []Event{}
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, cacheKey, events, s.config.Redis.SearchCacheTTL); err != nil {
			logger.GetDefault().Warn("failed to cache search results", "key", cacheKey, "error", err)
		}
	}

	return events, false, nil
}

func (s *service) GetEvents(ctx context.Context) ([]Event, error) {
	var events []Event

	if s.cacheService != nil {
		err := s.cacheService.GetOrSet(ctx, constants.CacheKeyEvents, s.config.Redis.EventsCacheTTL, func() (interface{}, error) {
			return s.repo.ListAll(ctx)
		}, &events)
		if err == nil {
			return events, nil
		}
		// Fall through to the durable store on any cache error
	}

	return s.repo.ListAll(ctx)
}

func (s *service) WarmCache(ctx context.Context) {
	if s.cacheService == nil {
		return
	}

	events, err := s.repo.ListAll(ctx)
	if err != nil {
		logger.GetDefault().Warn("cache warmup: failed to load events", "error", err)
		return
	}

	if err := s.cacheService.Set(ctx, constants.CacheKeyEvents, events, s.config.Redis.EventsCacheTTL); err != nil {
		logger.GetDefault().Warn("cache warmup: failed to store events", "error", err)
		return
	}

	logger.GetDefault().Info("cache warmup complete", "events", len(events))
}
