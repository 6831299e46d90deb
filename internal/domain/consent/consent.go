package consent

import "time"

// CookieConsent is one visitor's cookie choices. Essential is always true once persisted.
type CookieConsent struct {
	VisitorID   string     `gorm:"primaryKey;size:64" json:"visitor_id"`
	UserID      *string    `gorm:"column:user_id;index" json:"-"`
	Essential   bool       `gorm:"column:essential;not null;default:true" json:"essential"`
	Analytics   bool       `gorm:"column:analytics;not null;default:false" json:"analytics"`
	Marketing   bool       `gorm:"column:marketing;not null;default:false" json:"marketing"`
	Preferences bool       `gorm:"column:preferences;not null;default:false" json:"preferences"`
	DecidedAt   *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (CookieConsent) TableName() string { return "cookie_consents" }

// Preferences is the mutable part of a consent record.
type Preferences struct {
	Analytics   bool `json:"analytics"`
	Marketing   bool `json:"marketing"`
	Preferences bool `json:"preferences"`
}

// Default is the record served to visitors who have not decided yet.
func Default(visitorID string) CookieConsent {
	return CookieConsent{VisitorID: visitorID, Essential: true}
}
