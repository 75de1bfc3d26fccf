package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abic-consultancy/abic_backend/internal/config"
	"github.com/abic-consultancy/abic_backend/internal/models"
)

var settingKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,127}$`)

type SettingsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// ClientConfig exposes the values the public site and dashboard need to drive
// the booking form and the chunked uploader.
func (sc *SettingsController) ClientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"booking": gin.H{
			"timezone":     sc.Cfg.BookingTimezone,
			"open_hour":    sc.Cfg.BookingOpenHour,
			"close_hour":   sc.Cfg.BookingCloseHour,
			"slot_minutes": sc.Cfg.BookingSlotMinutes,
		},
		"upload": gin.H{
			"chunk_size": sc.Cfg.UploadChunkSize,
			"max_size":   sc.Cfg.UploadMaxSize,
		},
	})
}

// PublicSettings returns public settings as a key/value object.
func (sc *SettingsController) PublicSettings(c *gin.Context) {
	var rows []models.SiteSetting
	if err := sc.DB.Where("public = ?", true).Order("key").Find(&rows).Error; err != nil {
		internalError(c, "list settings", err)
		return
	}
	out := make(gin.H, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (sc *SettingsController) List(c *gin.Context) {
	rows := make([]models.SiteSetting, 0)
	if err := sc.DB.Order("key").Find(&rows).Error; err != nil {
		internalError(c, "list settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "meta": gin.H{"total": len(rows), "all": true}})
}

type settingRequest struct {
	Value       string  `json:"value"`
	Description *string `json:"description"`
	Public      *bool   `json:"public"`
}

// Put creates or replaces the setting named by :key.
func (sc *SettingsController) Put(c *gin.Context) {
	key := strings.ToLower(strings.TrimSpace(c.Param("key")))
	if !settingKeyPattern.MatchString(key) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
		return
	}
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var existing models.SiteSetting
	err := sc.DB.Where("key = ?", key).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		internalError(c, "load setting", err)
		return
	}
	created := errors.Is(err, gorm.ErrRecordNotFound)

	s := existing
	s.Key = key
	s.Value = req.Value
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.Public != nil {
		s.Public = *req.Public
	}
	if err := sc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "public", "updated_at"}),
	}).Create(&s).Error; err != nil {
		internalError(c, "save setting", err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "created", "key": key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated", "key": key})
}

func (sc *SettingsController) Delete(c *gin.Context) {
	key := strings.ToLower(strings.TrimSpace(c.Param("key")))
	if err := sc.DB.Where("key = ?", key).Delete(&models.SiteSetting{}).Error; err != nil {
		internalError(c, "delete setting", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
