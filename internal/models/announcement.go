package models

import (
	"time"

	"gorm.io/gorm"
)

type Announcement struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string     `gorm:"size:255" json:"title"`
	Content   string     `gorm:"type:text" json:"content"`
	Link      string     `json:"link"`
	IsActive  bool       `gorm:"index" json:"is_active"`
	IsPinned  bool       `json:"is_pinned"`
	PublishAt *time.Time `json:"publish_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&a.ID)
	return nil
}

// Visible reports whether the announcement should be shown on the public site at now.
func (a *Announcement) Visible(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.PublishAt != nil && now.Before(*a.PublishAt) {
		return false
	}
	if a.ExpiresAt != nil && !now.Before(*a.ExpiresAt) {
		return false
	}
	return true
}
