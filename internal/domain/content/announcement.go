package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Announcement struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	Body      string     `gorm:"column:body;type:text" json:"body"`
	Priority  int        `gorm:"column:priority;not null;default:0;index" json:"priority"`
	Active    bool       `gorm:"column:active;not null;index" json:"active"`
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Announcement) TableName() string { return "announcements" }

func (a *Announcement) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Visible reports whether the announcement should be shown at now.
func (a *Announcement) Visible(now time.Time) bool {
	return a != nil && a.Active && (a.ExpiresAt == nil || a.ExpiresAt.After(now))
}
