package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes AutoMigrate does not cover. The seat
// listing and the reaper both scan by status, so these are on the hot
// path under load.
func MigrateConstraints(db *gorm.DB) error {
	// Seat listing filters by event and pages by row/number.
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_seats_event_row_number
		ON seats (event_id, row, number);
	`).Error
	if err != nil {
		return err
	}

	// Booking cancel and the reaper sweep look seats up by booking.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_seats_booking_status
		ON seats (booking_id, status);
	`).Error
	if err != nil {
		return err
	}

	// The reaper scans pending payments by age.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payment_transactions_status_created
		ON payment_transactions (status, created_at);
	`).Error
	if err != nil {
		return err
	}

	// Stale booking sweep filters on status and age.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_status_created
		ON bookings (status, created_at);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
