package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-simpler.org/env"
)

const defaultJWTSecret = "supersecret_change_me"

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	DBDriver   string `env:"DATABASE_DRIVER" default:"postgres"`
	DBHost     string `env:"DB_HOST" default:"localhost"`
	DBPort     string `env:"DB_PORT" default:"5432"`
	DBUser     string `env:"DB_USER" default:"postgres"`
	DBPassword string `env:"DB_PASSWORD" default:"postgres"`
	DBName     string `env:"DB_NAME" default:"abic_db"`
	DBSSLMode  string `env:"DB_SSLMODE" default:"disable"`
	SQLitePath string `env:"SQLITE_PATH" default:"abic.db"`

	JWTSecret             string `env:"JWT_SECRET" default:"supersecret_change_me"`
	RefreshJWTSecret      string `env:"REFRESH_JWT_SECRET"`
	AccessTokenTTLMinutes int    `env:"ACCESS_TOKEN_TTL_MINUTES" default:"15"`
	RefreshTokenTTLDays   int    `env:"REFRESH_TOKEN_TTL_DAYS" default:"30"`

	AdminEmail    string `env:"ADMIN_EMAIL" default:"admin@abicconsultancy.com"`
	AdminPassword string `env:"ADMIN_PASSWORD" default:"admin123"`
	AdminFullName string `env:"ADMIN_FULL_NAME" default:"Administrator"`

	// Infrastructure; empty values fall back to in-process implementations.
	RedisURL    string `env:"REDIS_URL"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	NotifyQueue string `env:"NOTIFY_QUEUE" default:"submission_events"`

	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM" default:"no-reply@abicconsultancy.com"`
	MailFromName   string `env:"MAIL_FROM_NAME" default:"ABIC Consultancy"`
	NotifyEmail    string `env:"NOTIFY_EMAIL" default:"admin@abicconsultancy.com"`
	AdminURL       string `env:"ADMIN_URL" default:"http://localhost:3000/admin"`

	// Chunked uploads
	UploadDir        string        `env:"UPLOAD_DIR" default:"./uploads"`
	MediaBaseURL     string        `env:"MEDIA_BASE_URL" default:"/media"`
	UploadChunkSize  int64         `env:"UPLOAD_CHUNK_SIZE" default:"2097152"`
	UploadMaxSize    int64         `env:"UPLOAD_MAX_SIZE" default:"1073741824"`
	UploadSessionTTL time.Duration `env:"UPLOAD_SESSION_TTL" default:"2h"`

	// Consultation booking
	BookingTimezone    string `env:"BOOKING_TIMEZONE" default:"Asia/Manila"`
	BookingOpenHour    int    `env:"BOOKING_OPEN_HOUR" default:"9"`
	BookingCloseHour   int    `env:"BOOKING_CLOSE_HOUR" default:"17"`
	BookingSlotMinutes int    `env:"BOOKING_SLOT_MINUTES" default:"60"`

	PublicRatePerSecond float64 `env:"PUBLIC_RATE_PER_SECOND" default:"0.2"`
	PublicRateBurst     int     `env:"PUBLIC_RATE_BURST" default:"5"`
	CORSOrigins         string  `env:"CORS_ORIGINS" default:"*"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if cfg.RefreshJWTSecret == "" {
		cfg.RefreshJWTSecret = cfg.JWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.UploadChunkSize <= 0 {
		return errors.New("UPLOAD_CHUNK_SIZE must be positive")
	}
	if c.UploadMaxSize < c.UploadChunkSize {
		return errors.New("UPLOAD_MAX_SIZE must be at least UPLOAD_CHUNK_SIZE")
	}
	if c.UploadSessionTTL <= 0 {
		return errors.New("UPLOAD_SESSION_TTL must be positive")
	}
	if c.BookingOpenHour < 0 || c.BookingCloseHour > 24 || c.BookingCloseHour <= c.BookingOpenHour {
		return fmt.Errorf("invalid booking hours %d-%d", c.BookingOpenHour, c.BookingCloseHour)
	}
	if c.BookingSlotMinutes <= 0 {
		return errors.New("BOOKING_SLOT_MINUTES must be positive")
	}
	if _, err := time.LoadLocation(c.BookingTimezone); err != nil {
		return fmt.Errorf("BOOKING_TIMEZONE: %w", err)
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DBDriver)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) AccessTTL() time.Duration {
	if c.AccessTokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	if c.RefreshTokenTTLDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

// BookingLocation returns the location booking dates are evaluated in.
func (c *Config) BookingLocation() *time.Location {
	loc, err := time.LoadLocation(c.BookingTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
