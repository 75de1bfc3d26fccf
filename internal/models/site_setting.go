package models

import "time"

// SiteSetting stores a key/value setting managed from the dashboard, e.g. the
// office address or hotline shown on the public site.
type SiteSetting struct {
	Key         string    `gorm:"size:128;primaryKey" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `gorm:"type:text" json:"description"`
	Public      bool      `gorm:"index" json:"public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
