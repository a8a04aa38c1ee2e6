package events

import "time"

// Event is a sellable happening with a provisioned seat map.
type Event struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Title         string    `json:"title" gorm:"not null"`
	Description   *string   `json:"description,omitempty"`
	Type          string    `json:"type" gorm:"column:type"`
	DatetimeStart time.Time `json:"datetime_start"`
	Provider      string    `json:"provider"`
}

func (Event) TableName() string {
	return "events"
}

// SearchQuery carries the /api/events query parameters.
type SearchQuery struct {
	Query    string
	Date     string // YYYY-MM-DD, empty means any date
	Page     int
	PageSize int
}

// Normalize applies the documented defaults and caps.
func (q *SearchQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.PageSize > 20 {
		q.PageSize = 20
	}
}
