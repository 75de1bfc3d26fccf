package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/config"
	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/utils"
)

func TestSeedAdmin_Idempotent(t *testing.T) {
	db := OpenTestDB(t)
	cfg := &config.Config{AdminEmail: "root@abic.ph", AdminPassword: "s3cret!", AdminFullName: "Root"}

	require.NoError(t, SeedAdmin(db, cfg))
	require.NoError(t, SeedAdmin(db, cfg))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root@abic.ph", users[0].Email)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.True(t, users[0].Active)
	assert.True(t, utils.CheckPassword(users[0].Password, "s3cret!"))
}

func TestIsUniqueViolation(t *testing.T) {
	db := OpenTestDB(t)

	require.NoError(t, db.Create(&models.BlogPost{Title: "A", Slug: "same"}).Error)
	err := db.Create(&models.BlogPost{Title: "B", Slug: "same"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
}

func TestPing(t *testing.T) {
	assert.NoError(t, Ping(OpenTestDB(t)))
}

func TestActiveSlotIndex(t *testing.T) {
	db := OpenTestDB(t)
	slot := func(ref, status string) *models.Consultation {
		return &models.Consultation{Reference: ref, ConsultationDate: "2026-06-11", TimeSlot: "10:00", Status: status}
	}

	require.NoError(t, db.Create(slot("REF00001", models.ConsultationCancelled)).Error)
	require.NoError(t, db.Create(slot("REF00002", models.ConsultationPending)).Error)
	assert.True(t, IsUniqueViolation(db.Create(slot("REF00003", models.ConsultationConfirmed)).Error))
	require.NoError(t, db.Create(slot("REF00004", models.ConsultationCancelled)).Error)

	// migrating again keeps the index in place
	require.NoError(t, Migrate(db))
}
