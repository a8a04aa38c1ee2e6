package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIPrefix      string
	BaseURL        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// Background cleanup
	Reaper ReaperConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Kafka notifications
	Kafka KafkaConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string

	MaxIdleConns int
	MaxOpenConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for the key schema
	SeatLockTTL    time.Duration
	SeatsCacheTTL  time.Duration
	EventsCacheTTL time.Duration
	SearchCacheTTL time.Duration
	AuthCacheTTL   time.Duration
}

// PaymentConfig holds payment gateway configuration
type PaymentConfig struct {
	BaseURL  string
	TeamSlug string
	Password string
	Currency string

	// Circuit breaker tuning
	FailureThreshold int
	OpenTimeout      time.Duration
}

// ReaperConfig holds background cleanup configuration
type ReaperConfig struct {
	Enabled           bool
	Interval          time.Duration
	PaymentExpiry     time.Duration
	EmptyBookingAge   time.Duration
	StaleBookingAge   time.Duration
	OrphanLockEnabled bool
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	BookingRequests int           `json:"booking_requests"`
	SeatRequests    int           `json:"seat_requests"`
	WebhookRequests int           `json:"webhook_requests"`
	AdminRequests   int           `json:"admin_requests"`
	HealthRequests  int           `json:"health_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// KafkaConfig holds notification producer configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		BaseURL:        getEnv("APP_BASE_URL", "http://localhost:8080"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "ticketing"),
			User:         getEnv("DB_USER", "ticketing"),
			Password:     getEnv("DB_PASSWORD", "ticketing"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 100),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			SeatLockTTL:    getDurationEnvSeconds("SEAT_LOCK_TTL", 300*time.Second),
			SeatsCacheTTL:  getDurationEnvSeconds("SEATS_CACHE_TTL", 86400*time.Second),
			EventsCacheTTL: getDurationEnvSeconds("EVENTS_CACHE_TTL", 3600*time.Second),
			SearchCacheTTL: getDurationEnvSeconds("SEARCH_CACHE_TTL", 3600*time.Second),
			AuthCacheTTL:   getDurationEnvSeconds("AUTH_CACHE_TTL", 900*time.Second),
		},

		// Payment gateway configuration
		Payment: PaymentConfig{
			BaseURL:          getEnv("PAYMENT_GATEWAY_URL", "https://hub.hackload.kz/payment-provider/common"),
			TeamSlug:         getEnv("PAYMENT_TEAM_SLUG", "rorobotics"),
			Password:         getEnv("PAYMENT_PASSWORD", ""),
			Currency:         getEnv("PAYMENT_CURRENCY", "KZT"),
			FailureThreshold: getIntEnv("PAYMENT_CB_FAILURE_THRESHOLD", 5),
			OpenTimeout:      getDurationEnvSeconds("PAYMENT_CB_TIMEOUT", 60*time.Second),
		},

		// Background cleanup
		Reaper: ReaperConfig{
			Enabled:           getBoolEnv("REAPER_ENABLED", true),
			Interval:          getDurationEnvSeconds("REAPER_INTERVAL", 300*time.Second),
			PaymentExpiry:     getDurationEnv("REAPER_PAYMENT_EXPIRY", 15*time.Minute),
			EmptyBookingAge:   getDurationEnv("REAPER_EMPTY_BOOKING_AGE", 2*time.Hour),
			StaleBookingAge:   getDurationEnv("REAPER_STALE_BOOKING_AGE", 30*time.Minute),
			OrphanLockEnabled: getBoolEnv("REAPER_ORPHAN_LOCKS", true),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 100),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 300),
			BookingRequests: getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 120),
			SeatRequests:    getIntEnv("RATE_LIMIT_SEAT_REQUESTS", 240),
			WebhookRequests: getIntEnv("RATE_LIMIT_WEBHOOK_REQUESTS", 600),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 30),
			HealthRequests:  getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 600),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Kafka notifications
		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_NOTIFICATION_TOPIC", "booking-notifications"),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds gets an environment variable as seconds (int) and converts to time.Duration
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix
}

// PaymentSuccessURL is the redirect landing the gateway sends buyers to
// after a successful payment.
func (c *Config) PaymentSuccessURL() string {
	return c.BaseURL + c.APIPrefix + "/payments/success"
}

// PaymentFailURL is the redirect landing for failed payments.
func (c *Config) PaymentFailURL() string {
	return c.BaseURL + c.APIPrefix + "/payments/fail"
}

// PaymentWebhookURL is where the gateway posts payment status changes.
func (c *Config) PaymentWebhookURL() string {
	return c.BaseURL + c.APIPrefix + "/webhook/payment"
}
