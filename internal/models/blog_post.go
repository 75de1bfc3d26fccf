package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
)

type BlogPost struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"size:255" json:"title"`
	Slug        string         `gorm:"uniqueIndex;size:255" json:"slug"`
	Excerpt     string         `gorm:"type:text" json:"excerpt"`
	Content     string         `gorm:"type:text" json:"content"`
	ContentHTML string         `gorm:"type:text" json:"content_html"`
	CoverImage  string         `json:"cover_image"`
	VideoURL    string         `json:"video_url"`
	Author      string         `json:"author"`
	Category    string         `gorm:"index" json:"category"`
	Tags        datatypes.JSON `json:"tags"`
	Status      string         `gorm:"size:32;index" json:"status"`
	PublishedAt *time.Time     `json:"published_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (b *BlogPost) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&b.ID)
	return nil
}
