package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/abic-consultancy/abic_backend/internal/config"
	"github.com/abic-consultancy/abic_backend/internal/models"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Warn)}
	if cfg.DBDriver == "sqlite" {
		return Open(sqlite.Open(cfg.SQLitePath), gcfg)
	}
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
	)
	return Open(postgres.Open(dsn), gcfg)
}

// Open opens the database with timestamps recorded in UTC.
func Open(dialector gorm.Dialector, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg.NowFunc == nil {
		gcfg.NowFunc = func() time.Time { return time.Now().UTC() }
	}
	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// activeSlotIndex keeps at most one live booking per date and slot. Cancelled
// rows stay out of it so cancelling frees the slot.
const activeSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_consultation_active_slot
ON consultations (consultation_date, time_slot) WHERE status <> 'cancelled'`

func Migrate(db *gorm.DB) error {
	if err := autoMigrate(db); err != nil {
		return err
	}
	if err := db.Exec(activeSlotIndex).Error; err != nil {
		return fmt.Errorf("create active slot index: %w", err)
	}
	return nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Announcement{},
		&models.BlogPost{},
		&models.Consultation{},
		&models.ContactSubmission{},
		&models.Event{},
		&models.HRConsultation{},
		&models.Quote{},
		&models.Testimonial{},
		&models.MediaAsset{},
		&models.SiteSetting{},
	)
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
