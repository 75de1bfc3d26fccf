package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	HRPending   = "pending"
	HRContacted = "contacted"
	HRClosed    = "closed"
)

// HRConsultation is a request for HR advisory services from a company.
type HRConsultation struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyName    string    `json:"company_name"`
	ContactPerson  string    `json:"contact_person"`
	Email          string    `gorm:"index" json:"email"`
	Phone          string    `json:"phone"`
	CompanySize    string    `json:"company_size"`
	Industry       string    `json:"industry"`
	ServicesNeeded string    `gorm:"type:text" json:"services_needed"`
	Message        string    `gorm:"type:text" json:"message"`
	PreferredDate  string    `gorm:"size:10" json:"preferred_date"`
	Status         string    `gorm:"size:32;index" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (h *HRConsultation) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&h.ID)
	return nil
}
