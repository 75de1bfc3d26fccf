package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/booking"
	"github.com/abic-consultancy/abic_backend/internal/database"
	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/notify"
	"github.com/abic-consultancy/abic_backend/internal/utils"
)

const referenceLength = 8

var consultationStatuses = []string{
	models.ConsultationPending,
	models.ConsultationConfirmed,
	models.ConsultationCompleted,
	models.ConsultationCancelled,
}

type ConsultationController struct {
	DB       *gorm.DB
	Planner  *booking.Planner
	Notifier *notify.Dispatcher
}

type bookConsultationRequest struct {
	FullName         string `json:"full_name" binding:"required,max=255"`
	Email            string `json:"email" binding:"required,email"`
	Phone            string `json:"phone" binding:"required,phone"`
	Company          string `json:"company" binding:"max=255"`
	Service          string `json:"service" binding:"required,max=255"`
	ConsultationDate string `json:"consultation_date" binding:"required,datetime=2006-01-02"`
	TimeSlot         string `json:"time_slot" binding:"required,datetime=15:04"`
	Message          string `json:"message" binding:"max=5000"`
}

type updateConsultationRequest struct {
	FullName         *string `json:"full_name"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Phone            *string `json:"phone" binding:"omitempty,phone"`
	Company          *string `json:"company"`
	Service          *string `json:"service"`
	ConsultationDate *string `json:"consultation_date" binding:"omitempty,datetime=2006-01-02"`
	TimeSlot         *string `json:"time_slot" binding:"omitempty,datetime=15:04"`
	Message          *string `json:"message"`
	Status           *string `json:"status" binding:"omitempty,oneof=pending confirmed completed cancelled"`
}

// Calendar returns the booking calendar page for ?year=&month=, defaulting to
// the current month in the booking timezone.
func (cc *ConsultationController) Calendar(c *gin.Context) {
	now := cc.Planner.Now()
	year, month := now.Year(), int(now.Month())
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 9999 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
		month = n
	}
	grid, err := cc.Planner.Month(year, month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"calendar": grid,
		"timezone": cc.Planner.Location.String(),
		"slots":    cc.Planner.Hours.Slots(),
	})
}

// Availability lists the slots of ?date= with booked and elapsed ones marked unavailable.
func (cc *ConsultationController) Availability(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	if _, err := booking.ParseDate(date, cc.Planner.Location); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	booked, err := bookedSlots(cc.DB, date, "")
	if err != nil {
		internalError(c, "load booked slots", err)
		return
	}
	slots, err := cc.Planner.Availability(date, booked)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "timezone": cc.Planner.Location.String(), "slots": slots})
}

// Book stores a consultation request from the public booking form.
func (cc *ConsultationController) Book(c *gin.Context) {
	var req bookConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cons := models.Consultation{
		FullName:         strings.TrimSpace(req.FullName),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:            strings.TrimSpace(req.Phone),
		Company:          strings.TrimSpace(req.Company),
		Service:          strings.TrimSpace(req.Service),
		ConsultationDate: req.ConsultationDate,
		TimeSlot:         req.TimeSlot,
		Message:          req.Message,
		Status:           models.ConsultationPending,
	}

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if cons.Reference, err = utils.GenerateCode(referenceLength); err != nil {
			break
		}
		err = cc.DB.Transaction(func(tx *gorm.DB) error {
			if err := cc.checkSlot(tx, cons.ConsultationDate, cons.TimeSlot, ""); err != nil {
				return err
			}
			return tx.Create(&cons).Error
		})
		// a concurrent booking of the same slot trips the active slot index
		err = cc.slotConflict(err, &cons)
		if !database.IsUniqueViolation(err) {
			break
		}
		cons.ID = ""
	}
	if err != nil {
		cc.writeBookingError(c, err)
		return
	}

	announceSubmission(c, cc.Notifier, notify.Event{
		Kind:      notify.KindConsultation,
		ID:        cons.ID,
		Title:     fmt.Sprintf("%s on %s at %s", cons.Service, cons.ConsultationDate, cons.TimeSlot),
		Name:      cons.FullName,
		Email:     cons.Email,
		Summary:   cons.Message,
		CreatedAt: cons.CreatedAt,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message":           "created",
		"id":                cons.ID,
		"reference":         cons.Reference,
		"consultation_date": cons.ConsultationDate,
		"time_slot":         cons.TimeSlot,
	})
}

func (cc *ConsultationController) List(c *gin.Context) {
	lq := newListQuery(c, "full_name", "email", "service", "status", "consultation_date", "time_slot")
	lq.Search("full_name", "email", "company", "service", "reference")
	lq.Equal(c, "status", "status")
	lq.Equal(c, "service", "service")
	if err := lq.DateRange(c, "consultation_date", true, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.Consultation](c, cc.DB, lq)
}

func (cc *ConsultationController) Get(c *gin.Context) {
	getByID[models.Consultation](c, cc.DB, "consultation")
}

// Update edits a consultation. Moving it to another date or slot, or reopening
// a cancelled one, is checked against the other bookings, but staff may set a
// slot in the past.
func (cc *ConsultationController) Update(c *gin.Context) {
	var req updateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cons, ok := loadByID[models.Consultation](c, cc.DB, "consultation")
	if !ok {
		return
	}
	moved := (req.ConsultationDate != nil && *req.ConsultationDate != cons.ConsultationDate) ||
		(req.TimeSlot != nil && *req.TimeSlot != cons.TimeSlot)
	wasCancelled := cons.Status == models.ConsultationCancelled

	if req.FullName != nil {
		cons.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		cons.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		cons.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Company != nil {
		cons.Company = strings.TrimSpace(*req.Company)
	}
	if req.Service != nil {
		cons.Service = strings.TrimSpace(*req.Service)
	}
	if req.ConsultationDate != nil {
		cons.ConsultationDate = *req.ConsultationDate
	}
	if req.TimeSlot != nil {
		cons.TimeSlot = *req.TimeSlot
	}
	if req.Message != nil {
		cons.Message = *req.Message
	}
	if req.Status != nil {
		cons.Status = *req.Status
	}

	live := cons.Status != models.ConsultationCancelled
	err := cc.DB.Transaction(func(tx *gorm.DB) error {
		if moved && live && !cc.Planner.Hours.Offers(cons.TimeSlot) {
			return booking.ErrInvalidSlot
		}
		if live && (moved || wasCancelled) {
			if err := ensureSlotFree(tx, cons); err != nil {
				return err
			}
		}
		return tx.Save(cons).Error
	})
	if err != nil {
		cc.writeBookingError(c, cc.slotConflict(err, cons))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// UpdateStatus changes the booking status. Reopening a cancelled booking needs
// its slot to still be free.
func (cc *ConsultationController) UpdateStatus(c *gin.Context) {
	status, ok := bindStatus(c, consultationStatuses)
	if !ok {
		return
	}
	cons, ok := loadByID[models.Consultation](c, cc.DB, "consultation")
	if !ok {
		return
	}
	reopened := cons.Status == models.ConsultationCancelled && status != models.ConsultationCancelled
	err := cc.DB.Transaction(func(tx *gorm.DB) error {
		if reopened {
			if err := ensureSlotFree(tx, cons); err != nil {
				return err
			}
		}
		return tx.Model(cons).Update("status", status).Error
	})
	if err != nil {
		cc.writeBookingError(c, cc.slotConflict(err, cons))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (cc *ConsultationController) Delete(c *gin.Context) {
	deleteByID[models.Consultation](c, cc.DB, "consultation")
}

func (cc *ConsultationController) BulkDelete(c *gin.Context) {
	bulkDelete[models.Consultation](c, cc.DB, "consultations")
}

func (cc *ConsultationController) checkSlot(tx *gorm.DB, date, slot, excludeID string) error {
	booked, err := bookedSlots(tx, date, excludeID)
	if err != nil {
		return err
	}
	return cc.Planner.Check(date, slot, booked)
}

// slotConflict reports a unique violation as ErrSlotUnavailable when another
// live booking now holds the slot. Reference collisions pass through unchanged.
func (cc *ConsultationController) slotConflict(err error, cons *models.Consultation) error {
	if !database.IsUniqueViolation(err) {
		return err
	}
	if errors.Is(ensureSlotFree(cc.DB, cons), booking.ErrSlotUnavailable) {
		return booking.ErrSlotUnavailable
	}
	return err
}

func ensureSlotFree(db *gorm.DB, cons *models.Consultation) error {
	booked, err := bookedSlots(db, cons.ConsultationDate, cons.ID)
	if err != nil {
		return err
	}
	if booked[cons.TimeSlot] {
		return booking.ErrSlotUnavailable
	}
	return nil
}

func (cc *ConsultationController) writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrPastDate), errors.Is(err, booking.ErrInvalidSlot):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case database.IsUniqueViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": "could not allocate a booking reference, try again"})
	default:
		internalError(c, "save consultation", err)
	}
}

// bookedSlots returns the taken HH:MM slots on date, ignoring cancelled
// consultations and excludeID.
func bookedSlots(db *gorm.DB, date, excludeID string) (map[string]bool, error) {
	var slots []string
	q := db.Model(&models.Consultation{}).
		Where("consultation_date = ? AND status <> ?", date, models.ConsultationCancelled)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Pluck("time_slot", &slots).Error; err != nil {
		return nil, fmt.Errorf("load booked slots: %w", err)
	}
	booked := make(map[string]bool, len(slots))
	for _, s := range slots {
		booked[s] = true
	}
	return booked, nil
}
