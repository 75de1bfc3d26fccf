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

type AnnouncementController struct {
	DB    *gorm.DB
	Clock clockwork.Clock
}

type announcementRequest struct {
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	Link      *string    `json:"link" binding:"omitempty,url"`
	IsActive  *bool      `json:"is_active"`
	IsPinned  *bool      `json:"is_pinned"`
	PublishAt *time.Time `json:"publish_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (ac *AnnouncementController) now() time.Time {
	if ac.Clock == nil {
		return time.Now().UTC()
	}
	return ac.Clock.Now().UTC()
}

// PublicList returns the announcements currently visible on the site, pinned first.
func (ac *AnnouncementController) PublicList(c *gin.Context) {
	now := ac.now()
	lq := newListQuery(c, "title", "publish_at")
	lq.Scope(func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).
			Where("publish_at IS NULL OR publish_at <= ?", now).
			Where("expires_at IS NULL OR expires_at > ?", now)
	})
	lq.OrderFirst("is_pinned DESC")
	lq.Search("title", "content")
	respondList[models.Announcement](c, ac.DB, lq)
}

func (ac *AnnouncementController) PublicGet(c *gin.Context) {
	a, ok := loadByID[models.Announcement](c, ac.DB, "announcement")
	if !ok {
		return
	}
	if !a.Visible(ac.now()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "announcement not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (ac *AnnouncementController) List(c *gin.Context) {
	lq := newListQuery(c, "title", "is_active", "is_pinned", "publish_at", "expires_at")
	lq.Search("title", "content")
	if err := lq.Bool(c, "is_active", "is_active"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lq.Bool(c, "is_pinned", "is_pinned"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.Announcement](c, ac.DB, lq)
}

func (ac *AnnouncementController) Get(c *gin.Context) {
	getByID[models.Announcement](c, ac.DB, "announcement")
}

func (ac *AnnouncementController) Create(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	a := models.Announcement{IsActive: true}
	req.apply(&a)
	if a.PublishAt != nil && a.ExpiresAt != nil && !a.ExpiresAt.After(*a.PublishAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at must be after publish_at"})
		return
	}
	if err := ac.DB.Create(&a).Error; err != nil {
		internalError(c, "create announcement", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": a.ID})
}

func (ac *AnnouncementController) Update(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, ok := loadByID[models.Announcement](c, ac.DB, "announcement")
	if !ok {
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
		return
	}
	req.apply(a)
	if a.PublishAt != nil && a.ExpiresAt != nil && !a.ExpiresAt.After(*a.PublishAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expires_at must be after publish_at"})
		return
	}
	if err := ac.DB.Save(a).Error; err != nil {
		internalError(c, "update announcement", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (ac *AnnouncementController) Delete(c *gin.Context) {
	deleteByID[models.Announcement](c, ac.DB, "announcement")
}

func (ac *AnnouncementController) BulkDelete(c *gin.Context) {
	bulkDelete[models.Announcement](c, ac.DB, "announcements")
}

func (r *announcementRequest) apply(a *models.Announcement) {
	if r.Title != nil {
		a.Title = strings.TrimSpace(*r.Title)
	}
	if r.Content != nil {
		a.Content = *r.Content
	}
	if r.Link != nil {
		a.Link = strings.TrimSpace(*r.Link)
	}
	if r.IsActive != nil {
		a.IsActive = *r.IsActive
	}
	if r.IsPinned != nil {
		a.IsPinned = *r.IsPinned
	}
	if r.PublishAt != nil {
		t := r.PublishAt.UTC()
		a.PublishAt = &t
	}
	if r.ExpiresAt != nil {
		t := r.ExpiresAt.UTC()
		a.ExpiresAt = &t
	}
}
