package events

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	ListIDs(ctx context.Context) ([]int64, error)
	Search(ctx context.Context, query SearchQuery) ([]Event, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).Order("datetime_start ASC").Find(&events).Error
	return events, err
}

func (r *repository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&Event{}).Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) Search(ctx context.Context, query SearchQuery) ([]Event, error) {
	q := r.db.WithContext(ctx).Model(&Event{})

	if trimmed := strings.TrimSpace(query.Query); trimmed != "" {
		pattern := "%" + strings.ToLower(trimmed) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", pattern, pattern)
	}

	if query.Date != "" {
		if day, err := time.Parse("2006-01-02", query.Date); err == nil {
			q = q.Where("datetime_start >= ? AND datetime_start < ?", day, day.AddDate(0, 0, 1))
		}
	}

	var events []Event
	offset := (query.Page - 1) * query.PageSize
	err := q.Order("datetime_start ASC").
		Offset(offset).
		Limit(query.PageSize).
		Find(&events).Error
	return events, err
}
