package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/models"
)

type EventController struct {
	DB    *gorm.DB
	Clock clockwork.Clock
}

type eventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Location        *string    `json:"location"`
	StartAt         *time.Time `json:"start_at"`
	EndAt           *time.Time `json:"end_at"`
	ImageURL        *string    `json:"image_url"`
	RegistrationURL *string    `json:"registration_url" binding:"omitempty,url"`
	IsPublished     *bool      `json:"is_published"`
}

// PublicList lists published events; ?upcoming=true keeps only events that
// have not ended yet, soonest first.
func (ec *EventController) PublicList(c *gin.Context) {
	lq := newListQuery(c, "title", "start_at")
	lq.Scope(func(db *gorm.DB) *gorm.DB { return db.Where("is_published = ?", true) })
	if v := strings.ToLower(c.Query("upcoming")); v == "true" || v == "1" {
		now := time.Now().UTC()
		if ec.Clock != nil {
			now = ec.Clock.Now().UTC()
		}
		lq.Scope(func(db *gorm.DB) *gorm.DB {
			return db.Where("(end_at IS NOT NULL AND end_at >= ?) OR (end_at IS NULL AND start_at >= ?)", now, now)
		})
		if c.Query("sort_by") == "" {
			lq.SortCol, lq.SortDir = "start_at", "ASC"
		}
		lq.filters["upcoming"] = true
	}
	lq.Search("title", "description", "location")
	respondList[models.Event](c, ec.DB, lq)
}

func (ec *EventController) PublicGet(c *gin.Context) {
	ev, ok := loadByID[models.Event](c, ec.DB, "event")
	if !ok {
		return
	}
	if !ev.IsPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (ec *EventController) List(c *gin.Context) {
	lq := newListQuery(c, "title", "start_at", "end_at", "location", "is_published")
	lq.Search("title", "description", "location")
	if err := lq.Bool(c, "is_published", "is_published"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lq.DateRange(c, "start_at", false, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.Event](c, ec.DB, lq)
}

func (ec *EventController) Get(c *gin.Context) {
	getByID[models.Event](c, ec.DB, "event")
}

func (ec *EventController) Create(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" || req.StartAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and start_at are required"})
		return
	}
	ev := models.Event{}
	req.apply(&ev)
	if ev.EndAt != nil && ev.EndAt.Before(ev.StartAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_at must not be before start_at"})
		return
	}
	if err := ec.DB.Create(&ev).Error; err != nil {
		internalError(c, "create event", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": ev.ID})
}

func (ec *EventController) Update(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, ok := loadByID[models.Event](c, ec.DB, "event")
	if !ok {
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
		return
	}
	req.apply(ev)
	if ev.EndAt != nil && ev.EndAt.Before(ev.StartAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_at must not be before start_at"})
		return
	}
	if err := ec.DB.Save(ev).Error; err != nil {
		internalError(c, "update event", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (ec *EventController) Delete(c *gin.Context) {
	deleteByID[models.Event](c, ec.DB, "event")
}

func (ec *EventController) BulkDelete(c *gin.Context) {
	bulkDelete[models.Event](c, ec.DB, "events")
}

func (r *eventRequest) apply(e *models.Event) {
	if r.Title != nil {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Location != nil {
		e.Location = strings.TrimSpace(*r.Location)
	}
	if r.StartAt != nil {
		e.StartAt = r.StartAt.UTC()
	}
	if r.EndAt != nil {
		t := r.EndAt.UTC()
		e.EndAt = &t
	}
	if r.ImageURL != nil {
		e.ImageURL = strings.TrimSpace(*r.ImageURL)
	}
	if r.RegistrationURL != nil {
		e.RegistrationURL = strings.TrimSpace(*r.RegistrationURL)
	}
	if r.IsPublished != nil {
		e.IsPublished = *r.IsPublished
	}
}
