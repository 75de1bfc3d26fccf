package models

import (
	"time"

	"gorm.io/gorm"
)

// MediaAsset is a file assembled from a completed chunked upload.
type MediaAsset struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Path        string    `json:"-"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *MediaAsset) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&m.ID)
	return nil
}
