package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/notify"
)

var hrStatuses = []string{models.HRPending, models.HRContacted, models.HRClosed}

type HRConsultationController struct {
	DB       *gorm.DB
	Notifier *notify.Dispatcher
}

type hrConsultationRequest struct {
	CompanyName    string         `json:"company_name" binding:"required,max=255"`
	ContactPerson  string         `json:"contact_person" binding:"required,max=255"`
	Email          string         `json:"email" binding:"required,email"`
	Phone          string         `json:"phone" binding:"required,phone"`
	CompanySize    FlexibleString `json:"company_size"`
	Industry       string         `json:"industry" binding:"max=255"`
	ServicesNeeded string         `json:"services_needed" binding:"max=2000"`
	Message        string         `json:"message" binding:"max=5000"`
	PreferredDate  string         `json:"preferred_date" binding:"omitempty,datetime=2006-01-02,notpast"`
}

func (hc *HRConsultationController) Submit(c *gin.Context) {
	var req hrConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec := models.HRConsultation{
		CompanyName:    strings.TrimSpace(req.CompanyName),
		ContactPerson:  strings.TrimSpace(req.ContactPerson),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          strings.TrimSpace(req.Phone),
		CompanySize:    req.CompanySize.String(),
		Industry:       strings.TrimSpace(req.Industry),
		ServicesNeeded: req.ServicesNeeded,
		Message:        req.Message,
		PreferredDate:  req.PreferredDate,
		Status:         models.HRPending,
	}
	if err := hc.DB.Create(&rec).Error; err != nil {
		internalError(c, "create hr consultation", err)
		return
	}
	announceSubmission(c, hc.Notifier, notify.Event{
		Kind:      notify.KindHRConsultation,
		ID:        rec.ID,
		Title:     "HR consultation for " + rec.CompanyName,
		Name:      rec.ContactPerson,
		Email:     rec.Email,
		Summary:   rec.ServicesNeeded,
		CreatedAt: rec.CreatedAt,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": rec.ID})
}

func (hc *HRConsultationController) List(c *gin.Context) {
	lq := newListQuery(c, "company_name", "contact_person", "email", "industry", "status", "preferred_date")
	lq.Search("company_name", "contact_person", "email", "industry")
	lq.Equal(c, "status", "status")
	lq.Equal(c, "industry", "industry")
	if err := lq.DateRange(c, "created_at", false, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.HRConsultation](c, hc.DB, lq)
}

func (hc *HRConsultationController) Get(c *gin.Context) {
	getByID[models.HRConsultation](c, hc.DB, "hr consultation")
}

func (hc *HRConsultationController) Update(c *gin.Context) {
	updateTextFields[models.HRConsultation](c, hc.DB, "hr consultation",
		[]string{"company_name", "contact_person", "email", "phone", "company_size", "industry", "services_needed", "message", "preferred_date", "status"}, hrStatuses)
}

func (hc *HRConsultationController) UpdateStatus(c *gin.Context) {
	updateStatus[models.HRConsultation](c, hc.DB, "hr consultation", hrStatuses...)
}

func (hc *HRConsultationController) Delete(c *gin.Context) {
	deleteByID[models.HRConsultation](c, hc.DB, "hr consultation")
}

func (hc *HRConsultationController) BulkDelete(c *gin.Context) {
	bulkDelete[models.HRConsultation](c, hc.DB, "hr consultations")
}
