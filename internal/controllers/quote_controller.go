package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/notify"
)

var quoteStatuses = []string{
	models.QuotePending,
	models.QuoteReviewed,
	models.QuoteSent,
	models.QuoteAccepted,
	models.QuoteRejected,
}

type QuoteController struct {
	DB       *gorm.DB
	Notifier *notify.Dispatcher
}

type quoteRequest struct {
	FullName string         `json:"full_name" binding:"required,max=255"`
	Email    string         `json:"email" binding:"required,email"`
	Phone    string         `json:"phone" binding:"omitempty,phone"`
	Company  string         `json:"company" binding:"max=255"`
	Services []string       `json:"services" binding:"required,min=1,dive,required,max=255"`
	Budget   FlexibleString `json:"budget"`
	Timeline string         `json:"timeline" binding:"max=255"`
	Details  string         `json:"details" binding:"max=5000"`
}

func (qc *QuoteController) Submit(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	services := make([]string, 0, len(req.Services))
	for _, s := range req.Services {
		services = append(services, strings.TrimSpace(s))
	}
	raw, err := json.Marshal(services)
	if err != nil {
		internalError(c, "encode quote services", err)
		return
	}
	q := models.Quote{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Company:  strings.TrimSpace(req.Company),
		Services: datatypes.JSON(raw),
		Budget:   req.Budget.String(),
		Timeline: strings.TrimSpace(req.Timeline),
		Details:  req.Details,
		Status:   models.QuotePending,
	}
	if err := qc.DB.Create(&q).Error; err != nil {
		internalError(c, "create quote", err)
		return
	}
	announceSubmission(c, qc.Notifier, notify.Event{
		Kind:      notify.KindQuote,
		ID:        q.ID,
		Title:     "Quote request: " + strings.Join(services, ", "),
		Name:      q.FullName,
		Email:     q.Email,
		Summary:   q.Details,
		CreatedAt: q.CreatedAt,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": q.ID})
}

func (qc *QuoteController) List(c *gin.Context) {
	lq := newListQuery(c, "full_name", "email", "company", "status", "budget")
	lq.Search("full_name", "email", "company", "details")
	lq.Equal(c, "status", "status")
	if err := lq.DateRange(c, "created_at", false, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.Quote](c, qc.DB, lq)
}

func (qc *QuoteController) Get(c *gin.Context) {
	getByID[models.Quote](c, qc.DB, "quote")
}

func (qc *QuoteController) Update(c *gin.Context) {
	updateTextFields[models.Quote](c, qc.DB, "quote",
		[]string{"full_name", "email", "phone", "company", "budget", "timeline", "details", "status"}, quoteStatuses)
}

func (qc *QuoteController) UpdateStatus(c *gin.Context) {
	updateStatus[models.Quote](c, qc.DB, "quote", quoteStatuses...)
}

func (qc *QuoteController) Delete(c *gin.Context) {
	deleteByID[models.Quote](c, qc.DB, "quote")
}

func (qc *QuoteController) BulkDelete(c *gin.Context) {
	bulkDelete[models.Quote](c, qc.DB, "quotes")
}
