package models

import (
	"time"

	"gorm.io/gorm"
)

type Testimonial struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ClientName string    `json:"client_name"`
	Position   string    `json:"position"`
	Company    string    `json:"company"`
	Content    string    `gorm:"type:text" json:"content"`
	Rating     int       `json:"rating"`
	ImageURL   string    `json:"image_url"`
	IsApproved bool      `gorm:"index" json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (t *Testimonial) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&t.ID)
	return nil
}
