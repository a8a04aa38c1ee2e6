package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hackload-kz/rorobotics/internal/events"
	"github.com/hackload-kz/rorobotics/internal/seats"
	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/internal/shared/database"
	"github.com/hackload-kz/rorobotics/internal/users"

	"github.com/joho/godotenv"
)

// Seeder provisions the fixture data the load harness expects: a set
// of users with known credentials, a handful of events, and a full
// seat grid per event.
type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting database seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payment_transactions",
		"seats",
		"bookings",
		"events",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll seeds users, events, and seat grids, then flushes redis so
// no stale cache or lock survives the reset.
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	if err := s.SeedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	eventIDs, err := s.SeedEvents()
	if err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	if err := s.SeedSeats(eventIDs); err != nil {
		return fmt.Errorf("failed to seed seats: %w", err)
	}

	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: failed to flush redis: %v", err)
	}

	return nil
}

// SeedUsers creates the fixture accounts. Passwords are stored in the
// plain column because the auth layer compares plain text by contract
// with the load harness.
func (s *Seeder) SeedUsers() error {
	fmt.Println("  👤 Seeding users...")

	password := "qwerty"
	usersData := []struct {
		email     string
		firstName string
		surname   string
	}{
		{"alice@example.com", "Alice", "Ivanova"},
		{"bob@example.com", "Bob", "Petrov"},
		{"carol@example.com", "Carol", "Sidorova"},
	}

	for _, data := range usersData {
		user := users.User{
			Email:         data.email,
			PasswordPlain: &password,
			FirstName:     data.firstName,
			Surname:       data.surname,
			IsActive:      true,
			LastLoggedIn:  time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", data.email, err)
		}
		fmt.Printf("    ✅ Created user: %s\n", user.Email)
	}

	return nil
}

// SeedEvents creates sample events spread over the next months.
func (s *Seeder) SeedEvents() ([]int64, error) {
	fmt.Println("  🎪 Seeding events...")

	describe := func(text string) *string { return &text }

	eventsData := []struct {
		title       string
		description *string
		eventType   string
		daysFromNow int
		provider    string
	}{
		{"Rock Concert", describe("Stadium rock night with two support acts."), "concert", 30, "ticketmaster"},
		{"Classical Music Evening", describe("An elegant evening of classical music."), "concert", 45, "internal"},
		{"Tech Conference 2026", describe("Annual technology conference."), "conference", 60, "internal"},
		{"Stand-up Night", describe("Local comedians, one stage."), "show", 15, "internal"},
		{"Football Cup Final", describe("Season closing match."), "sport", 90, "ticketmaster"},
	}

	var eventIDs []int64
	for _, data := range eventsData {
		event := events.Event{
			Title:         data.title,
			Description:   data.description,
			Type:          data.eventType,
			DatetimeStart: time.Now().AddDate(0, 0, data.daysFromNow),
			Provider:      data.provider,
		}

		if err := s.db.PostgreSQL.Create(&event).Error; err != nil {
			return nil, fmt.Errorf("failed to create event %s: %w", data.title, err)
		}

		eventIDs = append(eventIDs, event.ID)
		fmt.Printf("    ✅ Created event: %s\n", event.Title)
	}

	return eventIDs, nil
}

// SeedSeats creates a row-by-number grid of free seats for each event.
// Rows 1-2 are priced as premium, the rest as standard.
func (s *Seeder) SeedSeats(eventIDs []int64) error {
	fmt.Println("  💺 Seeding seats...")

	const (
		rows        = 10
		seatsPerRow = 20
	)

	premium := "premium"
	standard := "standard"
	premiumPrice := 3000.0
	standardPrice := 1500.0

	for _, eventID := range eventIDs {
		batch := make([]seats.Seat, 0, rows*seatsPerRow)
		for row := 1; row <= rows; row++ {
			category, price := &standard, &standardPrice
			if row <= 2 {
				category, price = &premium, &premiumPrice
			}
			for number := 1; number <= seatsPerRow; number++ {
				batch = append(batch, seats.Seat{
					EventID:  eventID,
					Row:      row,
					Number:   number,
					Status:   seats.StatusFree,
					Category: category,
					Price:    price,
				})
			}
		}

		if err := s.db.PostgreSQL.CreateInBatches(batch, 200).Error; err != nil {
			return fmt.Errorf("failed to create seats for event %d: %w", eventID, err)
		}
		fmt.Printf("    ✅ Created %d seats for event %d\n", len(batch), eventID)
	}

	return nil
}
