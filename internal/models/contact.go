package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ContactNew      = "new"
	ContactRead     = "read"
	ContactReplied  = "replied"
	ContactArchived = "archived"
)

// ContactSubmission is a message sent through the public contact form.
type ContactSubmission struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"index" json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `gorm:"type:text" json:"message"`
	Status    string    `gorm:"size:32;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *ContactSubmission) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&c.ID)
	return nil
}
