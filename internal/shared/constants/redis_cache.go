package constants

import "fmt"

// Redis key schema. Every key the service writes is built here so the
// reaper and the admin reset can reason about the whole keyspace.
//
//	seat:{seat_id}:reserved                   short-lived seat lock, value = user_id
//	seats:{event_id}                          cached seat list for an event
//	events                                    cached event list
//	search:events:q={}&date={}&p={}&ps={}     cached search result page
//	auth:{email}:{password_hash}              cached credential check

const (
	CacheKeyEvents = "events"

	PatternSeatLocks  = "seat:*:reserved"
	PatternSeatsCache = "seats:*"
)

// BuildSeatLockKey returns the lock key gating contention for one seat.
func BuildSeatLockKey(seatID int64) string {
	return fmt.Sprintf("seat:%d:reserved", seatID)
}

// BuildSeatsCacheKey returns the cache key for an event's seat list.
func BuildSeatsCacheKey(eventID int64) string {
	return fmt.Sprintf("seats:%d", eventID)
}

// BuildSearchKey returns the cache key for one page of event search results.
func BuildSearchKey(query, date string, page, pageSize int) string {
	return fmt.Sprintf("search:events:q=%s&date=%s&p=%d&ps=%d", query, date, page, pageSize)
}

// BuildAuthKey returns the credential cache key. The password is hashed
// before it becomes part of a key so credentials never appear in the
// keyspace verbatim.
func BuildAuthKey(email, passwordHash string) string {
	return fmt.Sprintf("auth:%s:%s", email, passwordHash)
}
