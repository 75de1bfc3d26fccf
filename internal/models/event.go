package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string     `gorm:"size:255" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	Location        string     `json:"location"`
	StartAt         time.Time  `gorm:"index" json:"start_at"`
	EndAt           *time.Time `json:"end_at"`
	ImageURL        string     `json:"image_url"`
	RegistrationURL string     `json:"registration_url"`
	IsPublished     bool       `gorm:"index" json:"is_published"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&e.ID)
	return nil
}
