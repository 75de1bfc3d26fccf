package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/notify"
)

type TestimonialController struct {
	DB       *gorm.DB
	Notifier *notify.Dispatcher
}

type submitTestimonialRequest struct {
	ClientName string `json:"client_name" binding:"required,max=255"`
	Position   string `json:"position" binding:"max=255"`
	Company    string `json:"company" binding:"max=255"`
	Content    string `json:"content" binding:"required,max=3000"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	ImageURL   string `json:"image_url" binding:"omitempty,url"`
}

type testimonialRequest struct {
	ClientName *string `json:"client_name"`
	Position   *string `json:"position"`
	Company    *string `json:"company"`
	Content    *string `json:"content"`
	Rating     *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	ImageURL   *string `json:"image_url"`
	IsApproved *bool   `json:"is_approved"`
}

func (tc *TestimonialController) PublicList(c *gin.Context) {
	lq := newListQuery(c, "rating", "client_name")
	lq.Scope(func(db *gorm.DB) *gorm.DB { return db.Where("is_approved = ?", true) })
	respondList[models.Testimonial](c, tc.DB, lq)
}

// Submit stores a testimonial from the public site; it stays hidden until approved.
func (tc *TestimonialController) Submit(c *gin.Context) {
	var req submitTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t := models.Testimonial{
		ClientName: strings.TrimSpace(req.ClientName),
		Position:   strings.TrimSpace(req.Position),
		Company:    strings.TrimSpace(req.Company),
		Content:    req.Content,
		Rating:     req.Rating,
		ImageURL:   strings.TrimSpace(req.ImageURL),
	}
	if err := tc.DB.Create(&t).Error; err != nil {
		internalError(c, "create testimonial", err)
		return
	}
	announceSubmission(c, tc.Notifier, notify.Event{
		Kind:      notify.KindTestimonial,
		ID:        t.ID,
		Title:     fmt.Sprintf("%d-star testimonial from %s", t.Rating, t.ClientName),
		Name:      t.ClientName,
		Summary:   t.Content,
		CreatedAt: t.CreatedAt,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": t.ID})
}

func (tc *TestimonialController) List(c *gin.Context) {
	lq := newListQuery(c, "client_name", "company", "rating", "is_approved")
	lq.Search("client_name", "company", "content")
	lq.Equal(c, "rating", "rating")
	if err := lq.Bool(c, "is_approved", "is_approved"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.Testimonial](c, tc.DB, lq)
}

func (tc *TestimonialController) Get(c *gin.Context) {
	getByID[models.Testimonial](c, tc.DB, "testimonial")
}

// Create adds a testimonial from the dashboard; staff entries are approved unless stated.
func (tc *TestimonialController) Create(c *gin.Context) {
	var req testimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ClientName == nil || req.Content == nil || req.Rating == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_name, content and rating are required"})
		return
	}
	t := models.Testimonial{IsApproved: true}
	req.apply(&t)
	if err := tc.DB.Create(&t).Error; err != nil {
		internalError(c, "create testimonial", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": t.ID})
}

func (tc *TestimonialController) Update(c *gin.Context) {
	var req testimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, ok := loadByID[models.Testimonial](c, tc.DB, "testimonial")
	if !ok {
		return
	}
	req.apply(t)
	if err := tc.DB.Save(t).Error; err != nil {
		internalError(c, "update testimonial", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (tc *TestimonialController) Delete(c *gin.Context) {
	deleteByID[models.Testimonial](c, tc.DB, "testimonial")
}

func (tc *TestimonialController) BulkDelete(c *gin.Context) {
	bulkDelete[models.Testimonial](c, tc.DB, "testimonials")
}

func (r *testimonialRequest) apply(t *models.Testimonial) {
	if r.ClientName != nil {
		t.ClientName = strings.TrimSpace(*r.ClientName)
	}
	if r.Position != nil {
		t.Position = strings.TrimSpace(*r.Position)
	}
	if r.Company != nil {
		t.Company = strings.TrimSpace(*r.Company)
	}
	if r.Content != nil {
		t.Content = *r.Content
	}
	if r.Rating != nil {
		t.Rating = *r.Rating
	}
	if r.ImageURL != nil {
		t.ImageURL = strings.TrimSpace(*r.ImageURL)
	}
	if r.IsApproved != nil {
		t.IsApproved = *r.IsApproved
	}
}
