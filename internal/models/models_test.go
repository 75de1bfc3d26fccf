package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnnouncementVisible(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		a    Announcement
		want bool
	}{
		{"inactive", Announcement{IsActive: false}, false},
		{"active no window", Announcement{IsActive: true}, true},
		{"not yet published", Announcement{IsActive: true, PublishAt: &future}, false},
		{"published", Announcement{IsActive: true, PublishAt: &past}, true},
		{"expired", Announcement{IsActive: true, ExpiresAt: &past}, false},
		{"expires exactly now", Announcement{IsActive: true, ExpiresAt: &now}, false},
		{"within window", Announcement{IsActive: true, PublishAt: &past, ExpiresAt: &future}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Visible(now))
		})
	}
}

func TestAssignID(t *testing.T) {
	var q Quote
	assert.NoError(t, q.BeforeCreate(nil))
	assert.Len(t, q.ID, 36)

	c := ContactSubmission{ID: "fixed"}
	assert.NoError(t, c.BeforeCreate(nil))
	assert.Equal(t, "fixed", c.ID)
}
