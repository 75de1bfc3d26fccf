package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuotePending  = "pending"
	QuoteReviewed = "reviewed"
	QuoteSent     = "sent"
	QuoteAccepted = "accepted"
	QuoteRejected = "rejected"
)

type Quote struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string         `json:"full_name"`
	Email     string         `gorm:"index" json:"email"`
	Phone     string         `json:"phone"`
	Company   string         `json:"company"`
	Services  datatypes.JSON `json:"services"`
	Budget    string         `json:"budget"`
	Timeline  string         `json:"timeline"`
	Details   string         `gorm:"type:text" json:"details"`
	Status    string         `gorm:"size:32;index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (q *Quote) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&q.ID)
	return nil
}
