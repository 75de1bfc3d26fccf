package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ConsultationPending   = "pending"
	ConsultationConfirmed = "confirmed"
	ConsultationCompleted = "completed"
	ConsultationCancelled = "cancelled"
)

// Consultation is a booked consultation slot requested from the public booking form.
// ConsultationDate is stored as YYYY-MM-DD in the booking timezone and TimeSlot as HH:MM.
type Consultation struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	Reference        string    `gorm:"uniqueIndex;size:16" json:"reference"`
	FullName         string    `json:"full_name"`
	Email            string    `gorm:"index" json:"email"`
	Phone            string    `json:"phone"`
	Company          string    `json:"company"`
	Service          string    `json:"service"`
	ConsultationDate string    `gorm:"size:10;index:idx_consultation_slot" json:"consultation_date"`
	TimeSlot         string    `gorm:"size:5;index:idx_consultation_slot" json:"time_slot"`
	Message          string    `gorm:"type:text" json:"message"`
	Status           string    `gorm:"size:32;index" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (c *Consultation) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&c.ID)
	return nil
}
