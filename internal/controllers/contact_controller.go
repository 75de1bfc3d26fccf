package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/notify"
)

var contactStatuses = []string{models.ContactNew, models.ContactRead, models.ContactReplied, models.ContactArchived}

type ContactController struct {
	DB       *gorm.DB
	Notifier *notify.Dispatcher
}

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,phone"`
	Subject string `json:"subject" binding:"max=255"`
	Message string `json:"message" binding:"required,max=5000"`
}

func (cc *ContactController) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg := models.ContactSubmission{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: req.Message,
		Status:  models.ContactNew,
	}
	if err := cc.DB.Create(&msg).Error; err != nil {
		internalError(c, "create contact submission", err)
		return
	}
	title := msg.Subject
	if title == "" {
		title = "Message from " + msg.Name
	}
	announceSubmission(c, cc.Notifier, notify.Event{
		Kind:      notify.KindContact,
		ID:        msg.ID,
		Title:     title,
		Name:      msg.Name,
		Email:     msg.Email,
		Summary:   msg.Message,
		CreatedAt: msg.CreatedAt,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": msg.ID})
}

func (cc *ContactController) List(c *gin.Context) {
	lq := newListQuery(c, "name", "email", "subject", "status")
	lq.Search("name", "email", "subject", "message")
	lq.Equal(c, "status", "status")
	if err := lq.DateRange(c, "created_at", false, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.ContactSubmission](c, cc.DB, lq)
}

func (cc *ContactController) Get(c *gin.Context) {
	getByID[models.ContactSubmission](c, cc.DB, "contact submission")
}

func (cc *ContactController) Update(c *gin.Context) {
	updateTextFields[models.ContactSubmission](c, cc.DB, "contact submission",
		[]string{"name", "email", "phone", "subject", "message", "status"}, contactStatuses)
}

func (cc *ContactController) UpdateStatus(c *gin.Context) {
	updateStatus[models.ContactSubmission](c, cc.DB, "contact submission", contactStatuses...)
}

func (cc *ContactController) Delete(c *gin.Context) {
	deleteByID[models.ContactSubmission](c, cc.DB, "contact submission")
}

func (cc *ContactController) BulkDelete(c *gin.Context) {
	bulkDelete[models.ContactSubmission](c, cc.DB, "contact submissions")
}
