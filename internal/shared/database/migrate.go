package database

import (
	"github.com/hackload-kz/rorobotics/internal/bookings"
	"github.com/hackload-kz/rorobotics/internal/events"
	"github.com/hackload-kz/rorobotics/internal/payments"
	"github.com/hackload-kz/rorobotics/internal/seats"
	"github.com/hackload-kz/rorobotics/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&events.Event{},
		&seats.Seat{},
		&bookings.Booking{},
		&payments.PaymentTransaction{},
	)
}
